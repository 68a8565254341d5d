package network

import (
	"log/slog"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TrainConfig controls mini-batch backpropagation.
type TrainConfig struct {
	Epochs int // Number of mini-batch updates; non-positive runs none

	// BatchSize is the number of samples per update. Zero selects 4 for
	// classification and a tenth of the data set for regression.
	BatchSize int

	Logger *slog.Logger // Per-epoch error is logged at Debug (default: discard)
}

// batchSize resolves the configured mini-batch size for this network.
func (n *Network) batchSize(cfg TrainConfig) int {
	size := cfg.BatchSize
	if size == 0 {
		if n.cfg.Classification {
			size = 4
		} else {
			size = len(n.data) / 10
		}
	}
	return min(size, len(n.data))
}

// Train runs cfg.Epochs rounds of mini-batch backpropagation and returns the
// mean mini-batch error of every epoch.
//
// Each epoch draws a random mini-batch without replacement, backpropagates
// every sample's output error (target - output) through the sigmoid
// derivatives, averages the resulting weight changes over the batch, and
// adds them scaled by the learning rate.
func (n *Network) Train(rng *rand.Rand, cfg TrainConfig) ([]float64, error) {
	if len(n.data) == 0 {
		return nil, ErrEmptyDataSet
	}
	size := n.batchSize(cfg)
	if size <= 0 {
		return nil, errors.Wrapf(ErrEmptyMiniBatch, "%d samples give a batch of %d", len(n.data), size)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hidden := n.layers[:len(n.layers)-1]
	grads := make([]*mat.Dense, len(hidden))
	for i, l := range hidden {
		r, c := l.weights.Dims()
		grads[i] = mat.NewDense(r, c, nil)
	}

	history := make([]float64, 0, max(cfg.Epochs, 0))
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for _, g := range grads {
			g.Zero()
		}

		total := 0.0
		for _, idx := range rng.Perm(len(n.data))[:size] {
			s := n.data[idx]
			if err := n.decodeTarget(idx, s.Label); err != nil {
				return history, err
			}
			out := n.forward(s.Features)
			total += halfSquaredError(out, n.target)

			delta := make([]float64, len(out))
			for j, o := range out {
				delta[j] = n.target[j] - o
			}
			n.backpropagate(grads, delta)
		}

		scale := n.cfg.LearningRate / float64(size)
		for i, l := range hidden {
			l.weights.Add(l.weights, scaled(grads[i], scale))
		}

		loss := total / float64(size)
		history = append(history, loss)
		logger.Debug("backprop epoch", "epoch", epoch, "error", loss)
	}

	return history, nil
}

// backpropagate accumulates one sample's weight changes into grads, given
// the output layer delta and the buffers of the preceding forward pass.
func (n *Network) backpropagate(grads []*mat.Dense, delta []float64) {
	for i := len(n.layers) - 2; i >= 0; i-- {
		l := n.layers[i]
		l.accumulate(grads[i], delta)
		if i == 0 {
			break
		}
		// Layer i's inputs are the previous layer's outputs.
		delta = l.backward(delta, !n.layers[i-1].linear)
	}
}

func scaled(m *mat.Dense, k float64) *mat.Dense {
	var s mat.Dense
	s.Scale(k, m)
	return &s
}
