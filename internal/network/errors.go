package network

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrEmptyDataSet     = errors.New("no samples to evaluate")
	ErrEmptyMiniBatch   = errors.New("mini-batch is empty")
	ErrInvalidTopology  = errors.New("invalid network topology")
	ErrLabelDecode      = errors.New("cannot decode sample label")
	ErrFeatureDimension = errors.New("sample feature count does not match input layer")
)

// LabelError describes a label that could not be decoded under the
// network's classification or regression mode.
type LabelError struct {
	Sample         int    // Index of the sample in the data set
	Label          string // Raw label text
	Classification bool   // Mode the label was decoded under
	Classes        int    // Number of output classes (classification only)
}

// Error implements the error interface.
func (e *LabelError) Error() string {
	if e.Classification {
		return fmt.Sprintf("%v: sample %d: %q is not a class in [1, %d]", ErrLabelDecode, e.Sample, e.Label, e.Classes)
	}
	return fmt.Sprintf("%v: sample %d: %q is not a real number", ErrLabelDecode, e.Sample, e.Label)
}

// Unwrap lets errors.Is match ErrLabelDecode.
func (e *LabelError) Unwrap() error {
	return ErrLabelDecode
}
