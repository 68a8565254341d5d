// Package weights implements the weight vector shared by every training
// strategy: the ordered list of a network's non-output layer matrices,
// treated as a single point that can be added, scaled and recombined.
//
// All binary operations require both operands to have the same number of
// matrices with pairwise identical dimensions and return freshly allocated
// storage. Operands are never modified and results never alias them.
package weights

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Vector is an ordered sequence of weight matrices, one per non-output layer
// in network order.
type Vector []*mat.Dense

// Clone returns a deep copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for i, m := range v {
		out[i] = mat.DenseCopyOf(m)
	}
	return out
}

// Len returns the total number of scalar weights in v.
func (v Vector) Len() int {
	n := 0
	for _, m := range v {
		r, c := m.Dims()
		n += r * c
	}
	return n
}

// CheckShape reports whether a and b can be combined. The returned error
// wraps ErrShapeMismatch and is a *ShapeError.
func CheckShape(a, b Vector) error {
	if len(a) != len(b) {
		return &ShapeError{Index: -1, Want: [2]int{len(a), 0}, Got: [2]int{len(b), 0}}
	}
	for i := range a {
		ar, ac := a[i].Dims()
		br, bc := b[i].Dims()
		if ar != br || ac != bc {
			return &ShapeError{Index: i, Want: [2]int{ar, ac}, Got: [2]int{br, bc}}
		}
	}
	return nil
}

// Zeros returns a vector of zero matrices shaped like v.
func Zeros(v Vector) Vector {
	out := make(Vector, len(v))
	for i, m := range v {
		r, c := m.Dims()
		out[i] = mat.NewDense(r, c, nil)
	}
	return out
}

// Uniform returns a vector shaped like v with every element drawn from
// U(-bound, bound).
func Uniform(v Vector, bound float64, rng *rand.Rand) Vector {
	out := Zeros(v)
	for _, m := range out {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			row := m.RawRowView(i)
			for j := range row {
				row[j] = (rng.Float64()*2 - 1) * bound
			}
		}
	}
	return out
}

// Equal reports whether a and b have the same shape and identical elements.
func Equal(a, b Vector) bool {
	if CheckShape(a, b) != nil {
		return false
	}
	for i := range a {
		if !mat.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// EqualApprox is like Equal but tolerates an absolute or relative
// difference of tol per element.
func EqualApprox(a, b Vector, tol float64) bool {
	if CheckShape(a, b) != nil {
		return false
	}
	for i := range a {
		if !mat.EqualApprox(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

// Flatten copies every element of v, matrix by matrix in row-major order.
func Flatten(v Vector) []float64 {
	out := make([]float64, 0, v.Len())
	for _, m := range v {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			out = append(out, m.RawRowView(i)...)
		}
	}
	return out
}

// Unflatten returns a vector shaped like v holding data, the inverse of
// Flatten. It returns ErrShapeMismatch if data has the wrong length.
func Unflatten(v Vector, data []float64) (Vector, error) {
	if len(data) != v.Len() {
		return nil, &ShapeError{Index: -1, Want: [2]int{v.Len(), 0}, Got: [2]int{len(data), 0}}
	}
	out := make(Vector, len(v))
	off := 0
	for i, m := range v {
		r, c := m.Dims()
		buf := make([]float64, r*c)
		copy(buf, data[off:off+r*c])
		out[i] = mat.NewDense(r, c, buf)
		off += r * c
	}
	return out, nil
}
