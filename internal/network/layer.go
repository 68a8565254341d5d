package network

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer holds the affine transform from one layer of nodes to the next.
//
// The weight matrix has shape [next][size+1]; the last column multiplies a
// constant bias input of 1. The output layer of a network has no weights.
//
// A layer caches its most recent input and output for backpropagation, so a
// single Layer must not run Forward concurrently.
type Layer struct {
	size    int
	weights *mat.Dense

	in     *mat.VecDense // last input with the bias term appended
	out    *mat.VecDense // last output after activation
	linear bool
}

// newLayer creates a layer of size nodes feeding next nodes, with weights
// drawn from U(-bound, bound). next == 0 creates an output layer.
func newLayer(size, next int, bound float64, rng *rand.Rand) *Layer {
	l := &Layer{size: size}
	if next == 0 {
		return l
	}

	data := make([]float64, next*(size+1))
	for i := range data {
		//nolint:gosec // Weight initialization is not security-critical.
		data[i] = (rng.Float64()*2 - 1) * bound
	}
	l.weights = mat.NewDense(next, size+1, data)
	l.in = mat.NewVecDense(size+1, nil)
	l.in.SetVec(size, 1)
	l.out = mat.NewVecDense(next, nil)
	// Any transform producing a single value is left linear, wherever the
	// layer sits in the network.
	l.linear = next == 1
	return l
}

// Size returns the number of nodes in the layer.
func (l *Layer) Size() int {
	return l.size
}

// Weights returns the layer's weight matrix, or nil for an output layer.
func (l *Layer) Weights() *mat.Dense {
	return l.weights
}

// Linear reports whether the layer's transform skips the sigmoid.
func (l *Layer) Linear() bool {
	return l.linear
}

// Forward computes sigmoid(W*[input, 1]), or W*[input, 1] for a linear
// layer. The returned slice is the layer's output buffer and is overwritten
// by the next call.
func (l *Layer) Forward(input []float64) []float64 {
	if len(input) != l.size {
		panic(fmt.Sprintf("Layer.Forward: expected %d inputs, got %d", l.size, len(input)))
	}

	raw := l.in.RawVector().Data
	copy(raw[:l.size], input)
	l.out.MulVec(l.weights, l.in)

	out := l.out.RawVector().Data
	if !l.linear {
		for i, z := range out {
			out[i] = sigmoid(z)
		}
	}
	return out
}

// input returns the cached input of the last Forward call, without bias.
func (l *Layer) input() []float64 {
	return l.in.RawVector().Data[:l.size]
}

// accumulate adds delta ⊗ [input, 1] into grad.
func (l *Layer) accumulate(grad *mat.Dense, delta []float64) {
	in := l.in.RawVector().Data
	for r, d := range delta {
		row := grad.RawRowView(r)
		for c, x := range in {
			row[c] += d * x
		}
	}
}

// backward maps the deltas of this layer's outputs onto its inputs, given
// whether those inputs came out of a sigmoid.
func (l *Layer) backward(delta []float64, sigmoidInput bool) []float64 {
	prev := make([]float64, l.size)
	for r, d := range delta {
		row := l.weights.RawRowView(r)
		for j := 0; j < l.size; j++ {
			prev[j] += d * row[j]
		}
	}
	if sigmoidInput {
		for j, x := range l.input() {
			prev[j] *= x * (1 - x)
		}
	}
	return prev
}

// clone returns a deep copy with fresh buffers.
func (l *Layer) clone() *Layer {
	c := &Layer{size: l.size, linear: l.linear}
	if l.weights == nil {
		return c
	}
	c.weights = mat.DenseCopyOf(l.weights)
	c.in = mat.NewVecDense(l.size+1, nil)
	c.in.SetVec(l.size, 1)
	c.out = mat.NewVecDense(l.out.Len(), nil)
	return c
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
