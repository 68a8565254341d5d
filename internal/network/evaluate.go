package network

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/born-ml/evolve/internal/dataset"
)

// EvalReport summarizes a cross-validated evaluation. Scores are accuracy
// in [0, 1] for classification and mean squared error for regression.
type EvalReport struct {
	Classification bool
	Folds          []float64
	Mean           float64
}

// Evaluate shuffles the network's data set with rng, splits it into k folds
// and scores the current weights on every fold. The weights are not changed.
func (n *Network) Evaluate(rng *rand.Rand, k int) (*EvalReport, error) {
	if len(n.data) == 0 {
		return nil, ErrEmptyDataSet
	}
	if k <= 0 {
		k = 10
	}

	order := make([]int, len(n.data))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	shuffled := make([]dataset.Sample, len(order))
	for i, idx := range order {
		shuffled[i] = n.data[idx]
	}

	folds := dataset.Folds(shuffled, k)
	report := &EvalReport{Classification: n.cfg.Classification, Folds: make([]float64, len(folds))}
	start := 0
	for f, fold := range folds {
		score, err := n.score(fold, order[start:start+len(fold)])
		if err != nil {
			return nil, err
		}
		start += len(fold)
		report.Folds[f] = score
		report.Mean += score
	}
	report.Mean /= float64(len(folds))

	return report, nil
}

// score returns the accuracy or mean squared error over samples. index
// holds each sample's position in the network's data set.
func (n *Network) score(samples []dataset.Sample, index []int) (float64, error) {
	total := 0.0
	for i, s := range samples {
		guess := n.Predict(s.Features)
		text := strings.TrimSpace(s.Label)

		if n.cfg.Classification {
			class, err := strconv.Atoi(text)
			if err != nil {
				return 0, &LabelError{Sample: index[i], Label: s.Label, Classification: true, Classes: len(n.target)}
			}
			if int(guess) == class {
				total++
			}
			continue
		}

		want, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, &LabelError{Sample: index[i], Label: s.Label}
		}
		total += math.Pow(guess-want, 2)
	}
	return total / float64(len(samples)), nil
}
