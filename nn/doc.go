// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the feedforward network engine trained by the
// optimizers in package optim.
//
// # Overview
//
// This package contains:
//   - Network: fully connected sigmoid network bound to a data set
//   - Layer: one fully connected layer with a trailing bias column
//   - WeightVector: all weight matrices of a network, front to back
//   - Element-wise WeightVector operators: Add, Sub, Scale, Pick
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/evolve/dataset"
//	    "github.com/born-ml/evolve/nn"
//	)
//
//	func main() {
//	    samples, _ := dataset.LoadCSV("iris.csv", dataset.DefaultOptions())
//	    samples = dataset.ZScore(samples)
//
//	    cfg := nn.DefaultConfig()
//	    cfg.Classification = true
//
//	    rng := rand.New(rand.NewSource(1))
//	    net, _ := nn.New(samples, []int{4, 8, 3}, cfg, rng)
//
//	    // Backpropagation with mini-batches
//	    _, _ = net.Train(rng, nn.TrainConfig{Epochs: 5000})
//
//	    // Mean half squared error over the data set
//	    fitness, _ := net.UpdateFitness()
//	}
//
// # Topology
//
// A network is described by its layer widths, input first. Every layer
// except the output owns a [next][size+1] weight matrix whose last column
// multiplies the constant bias input 1. Layers apply the logistic sigmoid,
// except a layer whose only successor is a single node, which stays linear.
//
// # Labels
//
// Sample labels are decoded per mode: a 1-based class index for
// classification (one-hot target), a real number for regression.
// Undecodable labels fail with ErrLabelDecode.
package nn
