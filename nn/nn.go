// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/network"
	"github.com/born-ml/evolve/internal/serialization"
	"github.com/born-ml/evolve/internal/weights"
)

// Network

// Network is a feedforward network bound to a data set.
type Network = network.Network

// Layer is one fully connected layer of a Network.
type Layer = network.Layer

// Config contains network settings shared by all layers.
type Config = network.Config

// TrainConfig contains backpropagation settings.
type TrainConfig = network.TrainConfig

// EvalReport is the result of cross-validated evaluation.
type EvalReport = network.EvalReport

// LabelError describes a sample label that cannot be decoded.
type LabelError = network.LabelError

// DefaultConfig returns the default network settings.
func DefaultConfig() Config {
	return network.DefaultConfig()
}

// New creates a network with the given layer widths, input first, whose
// weights are drawn from rng.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	net, err := nn.New(samples, []int{4, 8, 3}, nn.DefaultConfig(), rng)
func New(data []dataset.Sample, sizes []int, cfg Config, rng *rand.Rand) (*Network, error) {
	return network.New(data, sizes, cfg, rng)
}

// Network errors.
var (
	ErrEmptyDataSet     = network.ErrEmptyDataSet
	ErrEmptyMiniBatch   = network.ErrEmptyMiniBatch
	ErrInvalidTopology  = network.ErrInvalidTopology
	ErrLabelDecode      = network.ErrLabelDecode
	ErrFeatureDimension = network.ErrFeatureDimension
)

// Weight vectors

// WeightVector is the ordered list of a network's weight matrices.
type WeightVector = weights.Vector

// ShapeError reports the first mismatching matrix of two weight vectors.
type ShapeError = weights.ShapeError

// ErrShapeMismatch is returned when two weight vectors differ in shape.
var ErrShapeMismatch = weights.ErrShapeMismatch

// Add returns a + b element-wise.
func Add(a, b WeightVector) (WeightVector, error) {
	return weights.Add(a, b)
}

// Sub returns a - b element-wise.
func Sub(a, b WeightVector) (WeightVector, error) {
	return weights.Sub(a, b)
}

// Scale returns k * a.
func Scale(a WeightVector, k float64) WeightVector {
	return weights.Scale(a, k)
}

// Pick returns a vector taking each element from a with probability p and
// from b otherwise.
func Pick(a, b WeightVector, p float64, rng *rand.Rand) (WeightVector, error) {
	return weights.Pick(a, b, p, rng)
}

// Persistence

// WeightFile is a decoded weight file: topology, settings and weights.
type WeightFile = serialization.File

// Save writes the weights, topology and settings of net to path.
//
// Example:
//
//	best, _ := de.Best()
//	err := nn.Save("best.evnn", best, map[string]string{"method": "de"})
func Save(path string, net *Network, metadata map[string]string) error {
	return serialization.SaveFile(path, net, metadata)
}

// Load reads a weight file and rebuilds its network bound to data.
func Load(path string, data []dataset.Sample) (*Network, error) {
	f, err := serialization.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Network(data)
}
