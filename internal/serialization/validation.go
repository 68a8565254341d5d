package serialization

import (
	"fmt"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize = 10 * 1024 * 1024   // 10MB
	MaxDataSize   = 1024 * 1024 * 1024 // 1GB
)

// ValidateHeader checks that the matrices listed in header match its
// topology and lie back to back inside a data section of dataSize bytes.
func ValidateHeader(header *Header, dataSize int64) error {
	sizes := header.Sizes
	if len(sizes) < 2 {
		return &ValidationError{Type: "topology", Details: fmt.Sprintf("need at least 2 layers, got %d", len(sizes))}
	}
	for i, s := range sizes {
		if s <= 0 {
			return &ValidationError{Type: "topology", Details: fmt.Sprintf("layer %d has %d nodes", i, s)}
		}
	}
	if len(header.Matrices) != len(sizes)-1 {
		return &ValidationError{
			Type:    "matrix_count",
			Details: fmt.Sprintf("%d layers need %d matrices, got %d", len(sizes), len(sizes)-1, len(header.Matrices)),
		}
	}

	var offset int64
	for i, m := range header.Matrices {
		if m.Rows != sizes[i+1] || m.Cols != sizes[i]+1 {
			return &ValidationError{
				Type:    "shape",
				Matrix:  m.Name,
				Details: fmt.Sprintf("got %dx%d, want %dx%d", m.Rows, m.Cols, sizes[i+1], sizes[i]+1),
			}
		}
		if want := int64(m.Rows * m.Cols * float64Size); m.Size != want {
			return &ValidationError{Type: "size", Matrix: m.Name, Details: fmt.Sprintf("got %d bytes, want %d", m.Size, want)}
		}
		if m.Offset != offset {
			return &ValidationError{Type: "offset", Matrix: m.Name, Details: fmt.Sprintf("got %d, want %d", m.Offset, offset)}
		}
		offset += m.Size
	}
	if offset != dataSize {
		return &ValidationError{Type: "out_of_bounds", Details: fmt.Sprintf("matrices cover %d bytes, data has %d", offset, dataSize)}
	}
	return nil
}
