// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/optim"
	"github.com/born-ml/evolve/internal/parallel"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// Stats summarizes a population after one generation.
type Stats = optim.Stats

// Result describes a finished run.
type Result = optim.Result

// ParallelConfig controls how fitness evaluation is spread over workers.
type ParallelConfig = parallel.Config

// DefaultParallelConfig uses one worker per logical core.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialConfig evaluates fitness on the calling goroutine.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}

// DefaultPopulationInitRange is the initial weight range differential
// evolution and particle swarm use when Network.InitRange is zero.
const DefaultPopulationInitRange = optim.DefaultPopulationInitRange

// ErrInvalidPopulationSize is returned for populations too small for the
// chosen strategy.
var ErrInvalidPopulationSize = optim.ErrInvalidPopulationSize

// Backpropagation

// Backprop trains a single network with mini-batch gradient descent.
type Backprop = optim.Backprop

// BackpropConfig contains configuration for Backprop.
type BackpropConfig = optim.BackpropConfig

// DefaultBackpropConfig returns the default backpropagation settings.
func DefaultBackpropConfig() BackpropConfig {
	return optim.DefaultBackpropConfig()
}

// NewBackprop creates a backpropagation trainer for one random network.
func NewBackprop(data []dataset.Sample, sizes []int, cfg BackpropConfig) (*Backprop, error) {
	return optim.NewBackprop(data, sizes, cfg)
}

// Differential evolution

// DifferentialEvolution evolves a population of networks.
type DifferentialEvolution = optim.DifferentialEvolution

// DEConfig contains configuration for DifferentialEvolution.
type DEConfig = optim.DEConfig

// DefaultDEConfig returns the default differential evolution settings.
func DefaultDEConfig() DEConfig {
	return optim.DefaultDEConfig()
}

// NewDifferentialEvolution creates a population of size random networks.
//
// Example:
//
//	cfg := optim.DefaultDEConfig()
//	cfg.Seed = 1
//	de, err := optim.NewDifferentialEvolution(20, samples, []int{4, 8, 1}, cfg)
func NewDifferentialEvolution(size int, data []dataset.Sample, sizes []int, cfg DEConfig) (*DifferentialEvolution, error) {
	return optim.NewDifferentialEvolution(size, data, sizes, cfg)
}

// Particle swarm

// ParticleSwarm moves a swarm of networks through weight space.
type ParticleSwarm = optim.ParticleSwarm

// PSOConfig contains configuration for ParticleSwarm.
type PSOConfig = optim.PSOConfig

// DefaultPSOConfig returns the default particle swarm settings.
func DefaultPSOConfig() PSOConfig {
	return optim.DefaultPSOConfig()
}

// NewParticleSwarm creates a swarm of size random networks.
//
// Example:
//
//	cfg := optim.DefaultPSOConfig()
//	cfg.Seed = 1
//	pso, err := optim.NewParticleSwarm(20, samples, []int{4, 8, 1}, cfg)
func NewParticleSwarm(size int, data []dataset.Sample, sizes []int, cfg PSOConfig) (*ParticleSwarm, error) {
	return optim.NewParticleSwarm(size, data, sizes, cfg)
}
