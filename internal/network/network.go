// Package network implements a fully connected feedforward network whose
// trainable weights double as the search point of population-based
// optimizers.
//
// Every non-output layer applies an affine transform followed by a logistic
// sigmoid. A transform that produces exactly one value is left linear; this
// holds for any layer of that width, not only the last one, so a hidden
// layer of a single node is linear too.
//
// Fitness is the mean over the network's data set of half the squared error
// between the output and the target: a one-hot vector for 1-based class
// labels, or the label's value in the first output for regression. Lower is
// better.
package network

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/weights"
)

// Config holds the network hyperparameters.
type Config struct {
	Classification bool    // Decode labels as 1-based class indices
	LearningRate   float64 // Backpropagation step size (default: 0.5)
	InitRange      float64 // Initial weights are drawn from U(-InitRange, InitRange) (default: 0.01)
}

// DefaultConfig returns a regression configuration with the default
// learning rate and initialization range.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.5,
		InitRange:    0.01,
	}
}

// Network is an ordered stack of layers with a data set to score against.
type Network struct {
	layers  []*Layer
	data    []dataset.Sample
	cfg     Config
	fitness float64

	// Reused target buffer.
	target []float64
}

// New creates a network with one layer per entry of sizes, including the
// input and output layers, and random initial weights drawn from rng.
//
// data is shared read-only with every clone of the network. It may be
// empty; fitness and training then fail with ErrEmptyDataSet.
func New(data []dataset.Sample, sizes []int, cfg Config, rng *rand.Rand) (*Network, error) {
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.5
	}
	if cfg.InitRange == 0 {
		cfg.InitRange = 0.01
	}

	if len(sizes) < 2 {
		return nil, errors.Wrapf(ErrInvalidTopology, "need input and output layers, got %d layers", len(sizes))
	}
	for i, s := range sizes {
		if s <= 0 {
			return nil, errors.Wrapf(ErrInvalidTopology, "layer %d has %d nodes", i, s)
		}
	}
	for i, s := range data {
		if len(s.Features) != sizes[0] {
			return nil, errors.Wrapf(ErrFeatureDimension, "sample %d has %d features, input layer has %d",
				i, len(s.Features), sizes[0])
		}
	}

	layers := make([]*Layer, len(sizes))
	for i, s := range sizes {
		next := 0
		if i+1 < len(sizes) {
			next = sizes[i+1]
		}
		layers[i] = newLayer(s, next, cfg.InitRange, rng)
	}

	return &Network{
		layers: layers,
		data:   data,
		cfg:    cfg,
		target: make([]float64, sizes[len(sizes)-1]),
	}, nil
}

// Sizes returns the number of nodes in each layer.
func (n *Network) Sizes() []int {
	sizes := make([]int, len(n.layers))
	for i, l := range n.layers {
		sizes[i] = l.size
	}
	return sizes
}

// Layers returns copies of the network's layers. The output layer is last
// and has no weights. Changing a copy does not affect the network; use
// SetWeights for that.
func (n *Network) Layers() []*Layer {
	out := make([]*Layer, len(n.layers))
	for i, l := range n.layers {
		out[i] = l.clone()
	}
	return out
}

// Config returns the network configuration.
func (n *Network) Config() Config {
	return n.cfg
}

// Data returns the data set the network is scored against.
func (n *Network) Data() []dataset.Sample {
	return n.data
}

// Fitness returns the value computed by the last UpdateFitness call.
func (n *Network) Fitness() float64 {
	return n.fitness
}

// Forward pushes input through the network and returns a copy of the output
// layer's values.
func (n *Network) Forward(input []float64) []float64 {
	out := n.forward(input)
	res := make([]float64, len(out))
	copy(res, out)
	return res
}

// forward returns the last layer buffer without copying.
func (n *Network) forward(input []float64) []float64 {
	out := input
	for _, l := range n.layers[:len(n.layers)-1] {
		out = l.Forward(out)
	}
	return out
}

// Predict returns the 1-based class with the highest output for
// classification networks, or the first output for regression.
func (n *Network) Predict(features []float64) float64 {
	out := n.forward(features)
	if !n.cfg.Classification {
		return out[0]
	}
	best := 0
	for i, v := range out {
		if v > out[best] {
			best = i
		}
	}
	return float64(best + 1)
}

// Weights returns a copy of the non-output layer matrices in network order.
func (n *Network) Weights() weights.Vector {
	v := make(weights.Vector, 0, len(n.layers)-1)
	for _, l := range n.layers[:len(n.layers)-1] {
		v = append(v, l.weights)
	}
	return v.Clone()
}

// SetWeights copies v into the network's own matrices. v must have the
// network's shape; on mismatch nothing is modified and the error wraps
// weights.ErrShapeMismatch.
func (n *Network) SetWeights(v weights.Vector) error {
	own := make(weights.Vector, 0, len(n.layers)-1)
	for _, l := range n.layers[:len(n.layers)-1] {
		own = append(own, l.weights)
	}
	if err := weights.CheckShape(own, v); err != nil {
		return err
	}
	for i, m := range own {
		m.Copy(v[i])
	}
	return nil
}

// Clone returns an independent copy of the network. The copy shares the
// read-only data set but no weight storage.
func (n *Network) Clone() *Network {
	layers := make([]*Layer, len(n.layers))
	for i, l := range n.layers {
		layers[i] = l.clone()
	}
	return &Network{
		layers:  layers,
		data:    n.data,
		cfg:     n.cfg,
		fitness: n.fitness,
		target:  make([]float64, len(n.target)),
	}
}

// UpdateFitness recomputes and stores the mean error over the data set.
func (n *Network) UpdateFitness() (float64, error) {
	if len(n.data) == 0 {
		return 0, ErrEmptyDataSet
	}

	total := 0.0
	for i, s := range n.data {
		if err := n.decodeTarget(i, s.Label); err != nil {
			return 0, err
		}
		total += halfSquaredError(n.forward(s.Features), n.target)
	}

	n.fitness = total / float64(len(n.data))
	return n.fitness, nil
}

// decodeTarget fills n.target for the label of sample i.
func (n *Network) decodeTarget(i int, label string) error {
	for j := range n.target {
		n.target[j] = 0
	}

	text := strings.TrimSpace(label)
	if n.cfg.Classification {
		class, err := strconv.Atoi(text)
		if err != nil || class < 1 || class > len(n.target) {
			return &LabelError{Sample: i, Label: label, Classification: true, Classes: len(n.target)}
		}
		n.target[class-1] = 1
		return nil
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return &LabelError{Sample: i, Label: label}
	}
	n.target[0] = v
	return nil
}

func halfSquaredError(output, target []float64) float64 {
	sum := 0.0
	for i, o := range output {
		d := target[i] - o
		sum += d * d
	}
	return sum / 2
}
