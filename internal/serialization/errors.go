package serialization

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidLayout      = errors.New("weight layout does not match topology")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "shape", "out_of_bounds")
	Matrix  string // Matrix name involved, if any
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Matrix != "" {
		return fmt.Sprintf("%s: matrix %q: %s", e.Type, e.Matrix, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap makes every validation failure match ErrInvalidLayout.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidLayout
}
