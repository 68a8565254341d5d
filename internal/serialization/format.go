package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes      = "EVNN"
	FormatVersion   = 1
	HeaderAlignment = 64   // Weight data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
	float64Size     = 8
)

// Flags for the fixed header.
const (
	FlagHasMetadata uint32 = 1 << 0 // custom metadata included
	FlagHasFitness  uint32 = 1 << 1 // fitness recorded
)

// Header is the JSON header of a weight file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	CreatedAt      time.Time         `json:"created_at"`
	Sizes          []int             `json:"sizes"`             // Layer widths, input first
	Classification bool              `json:"classification"`    // Label decoding mode
	LearningRate   float64           `json:"learning_rate"`     // Backpropagation step size
	Fitness        *float64          `json:"fitness,omitempty"` // Fitness when saved, if finite
	Matrices       []MatrixMeta      `json:"matrices"`          // One per non-output layer
	Metadata       map[string]string `json:"metadata"`          // Custom metadata
}

// MatrixMeta describes one weight matrix in the data section.
type MatrixMeta struct {
	Name   string `json:"name"`   // e.g. "layer.0.weight"
	Rows   int    `json:"rows"`   // Nodes in the next layer
	Cols   int    `json:"cols"`   // Nodes in this layer plus bias
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// alignedOffset returns the start of the data section for a header of the
// given size.
func alignedOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
