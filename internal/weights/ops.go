package weights

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Add returns a + b.
func Add(a, b Vector) (Vector, error) {
	if err := CheckShape(a, b); err != nil {
		return nil, err
	}
	out := make(Vector, len(a))
	for i := range a {
		var c mat.Dense
		c.Add(a[i], b[i])
		out[i] = &c
	}
	return out, nil
}

// Sub returns a - b.
func Sub(a, b Vector) (Vector, error) {
	if err := CheckShape(a, b); err != nil {
		return nil, err
	}
	out := make(Vector, len(a))
	for i := range a {
		var c mat.Dense
		c.Sub(a[i], b[i])
		out[i] = &c
	}
	return out, nil
}

// Scale returns k * a.
func Scale(a Vector, k float64) Vector {
	out := make(Vector, len(a))
	for i := range a {
		var c mat.Dense
		c.Scale(k, a[i])
		out[i] = &c
	}
	return out
}

// AddScaled returns a + k*b without materializing k*b.
func AddScaled(a Vector, k float64, b Vector) (Vector, error) {
	if err := CheckShape(a, b); err != nil {
		return nil, err
	}
	out := Zeros(a)
	for i := range a {
		r, _ := a[i].Dims()
		for row := 0; row < r; row++ {
			floats.AddScaledTo(out[i].RawRowView(row), a[i].RawRowView(row), k, b[i].RawRowView(row))
		}
	}
	return out, nil
}

// Pick performs binomial crossover. Every element independently keeps a's
// value with probability p and takes b's value otherwise. One draw is taken
// from rng per element, matrix by matrix in row-major order.
func Pick(a, b Vector, p float64, rng *rand.Rand) (Vector, error) {
	if err := CheckShape(a, b); err != nil {
		return nil, err
	}
	out := Zeros(a)
	for i := range a {
		r, _ := a[i].Dims()
		for row := 0; row < r; row++ {
			dst := out[i].RawRowView(row)
			av, bv := a[i].RawRowView(row), b[i].RawRowView(row)
			for j := range dst {
				if rng.Float64() < p {
					dst[j] = av[j]
				} else {
					dst[j] = bv[j]
				}
			}
		}
	}
	return out, nil
}
