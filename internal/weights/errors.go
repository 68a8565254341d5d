package weights

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShapeMismatch is returned when two weight vectors cannot be combined
// element by element.
var ErrShapeMismatch = errors.New("weight vector shape mismatch")

// ShapeError describes where two weight vectors diverge. When Index is -1
// the vectors differ in length and only Want[0] and Got[0] are set.
type ShapeError struct {
	Index int    // Matrix index
	Want  [2]int // Rows and columns of the left operand
	Got   [2]int // Rows and columns of the right operand
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: length %d vs %d", ErrShapeMismatch, e.Want[0], e.Got[0])
	}
	return fmt.Sprintf("%v: matrix %d is %dx%d, other is %dx%d",
		ErrShapeMismatch, e.Index, e.Want[0], e.Want[1], e.Got[0], e.Got[1])
}

// Unwrap lets errors.Is match ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
