package optim

import (
	"log/slog"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/network"
)

// BackpropConfig holds configuration for gradient training.
type BackpropConfig struct {
	Config

	// BatchSize overrides the mini-batch size; see network.TrainConfig.
	BatchSize int
}

// DefaultBackpropConfig returns the default gradient training settings.
func DefaultBackpropConfig() BackpropConfig {
	return BackpropConfig{
		Config: Config{
			Network: network.DefaultConfig(),
			Seed:    -1,
		},
	}
}

// Backprop trains a single network with mini-batch backpropagation behind
// the Optimizer interface. One generation is one epoch; the reported
// statistics are the epoch's mini-batch error. Threshold is not used.
type Backprop struct {
	net       *network.Network
	batchSize int
	rng       *rand.Rand
	logger    *slog.Logger
}

// NewBackprop creates a randomly initialized network for gradient training.
func NewBackprop(data []dataset.Sample, sizes []int, cfg BackpropConfig) (*Backprop, error) {
	if len(data) == 0 {
		return nil, network.ErrEmptyDataSet
	}

	rng := newRand(cfg.Seed)
	net, err := network.New(data, sizes, cfg.Network, rng)
	if err != nil {
		return nil, errors.Wrap(err, "initialize network")
	}
	if _, err := net.UpdateFitness(); err != nil {
		return nil, err
	}

	return &Backprop{
		net:       net,
		batchSize: cfg.BatchSize,
		rng:       rng,
		logger:    loggerOrDiscard(cfg.Logger),
	}, nil
}

// Run trains for generations epochs and re-scores the network on the whole
// data set.
func (b *Backprop) Run(generations int) (*Result, error) {
	history, err := b.net.Train(b.rng, network.TrainConfig{
		Epochs:    generations,
		BatchSize: b.batchSize,
		Logger:    b.logger,
	})

	res := &Result{Generations: len(history), History: make([]Stats, len(history))}
	for i, loss := range history {
		res.History[i] = Stats{Generation: i + 1, Best: loss, Mean: loss}
	}
	if err != nil {
		res.Best = b.net.Fitness()
		return res, err
	}

	fitness, err := b.net.UpdateFitness()
	if err != nil {
		return res, err
	}
	res.Best = fitness
	b.logger.Info("backprop finished", "epochs", res.Generations, "fitness", fitness)
	return res, nil
}

// Best returns a copy of the trained network and its fitness.
func (b *Backprop) Best() (*network.Network, float64) {
	return b.net.Clone(), b.net.Fitness()
}
