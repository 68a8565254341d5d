// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides training strategies for nn networks.
//
// # Overview
//
// This package contains:
//   - Backprop: mini-batch gradient descent on a single network
//   - DifferentialEvolution: DE/rand/1 with uniform crossover over a population
//   - ParticleSwarm: particle swarm optimization with a ring of local bests
//   - Optimizer interface shared by all three
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/evolve/dataset"
//	    "github.com/born-ml/evolve/optim"
//	)
//
//	func main() {
//	    samples, _ := dataset.LoadCSV("wine.csv", dataset.DefaultOptions())
//	    samples = dataset.ZScore(samples)
//
//	    cfg := optim.DefaultDEConfig()
//	    cfg.Seed = 1
//	    cfg.Network.Classification = true
//
//	    de, _ := optim.NewDifferentialEvolution(20, samples, []int{13, 8, 3}, cfg)
//	    result, _ := de.Run(2000)
//
//	    best, fitness := de.Best()
//	}
//
// # Fitness
//
// Every strategy minimizes the mean half squared error of a network over
// its data set. Runs stop after the requested number of generations or
// once the best fitness falls below the configured threshold.
//
// # Reproducibility
//
// Each optimizer owns a random generator seeded from its Config.Seed and
// draws from it on a single goroutine. Fitness evaluation is spread over
// workers according to Config.Parallel, which never changes the result.
package optim
