package network

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/weights"
)

// linearData samples y = 0.5*x1 - 0.25*x2 + 0.1 on a grid.
func linearData() []dataset.Sample {
	var samples []dataset.Sample
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			x1, x2 := float64(i)/2, float64(j)/2
			y := 0.5*x1 - 0.25*x2 + 0.1
			samples = append(samples, dataset.Sample{
				Features: []float64{x1, x2},
				Label:    strconv.FormatFloat(y, 'g', -1, 64),
			})
		}
	}
	return samples
}

// clusterData labels points by the sign of x1 + x2 as class 1 or 2.
func clusterData() []dataset.Sample {
	rng := rand.New(rand.NewSource(11))
	samples := make([]dataset.Sample, 40)
	for i := range samples {
		x1, x2 := rng.Float64()*2-1, rng.Float64()*2-1
		label := "1"
		if x1+x2 > 0 {
			label = "2"
		}
		samples[i] = dataset.Sample{Features: []float64{x1, x2}, Label: label}
	}
	return samples
}

func newNet(t *testing.T, data []dataset.Sample, sizes []int, cfg Config) *Network {
	t.Helper()
	n, err := New(data, sizes, cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return n
}

func TestForward_ClosedForm(t *testing.T) {
	n := newNet(t, nil, []int{2, 2}, DefaultConfig())
	w := mat.NewDense(2, 3, []float64{
		0.3, -0.7, 0.1,
		1.2, 0.4, -0.5,
	})
	require.NoError(t, n.SetWeights(weights.Vector{w}))

	x1, x2 := 0.8, -1.5
	got := n.Forward([]float64{x1, x2})

	want := []float64{
		1 / (1 + math.Exp(-(0.3*x1 - 0.7*x2 + 0.1))),
		1 / (1 + math.Exp(-(1.2*x1 + 0.4*x2 - 0.5))),
	}
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestForward_SingleNodeIsLinear(t *testing.T) {
	t.Run("output", func(t *testing.T) {
		n := newNet(t, nil, []int{2, 1}, DefaultConfig())
		require.NoError(t, n.SetWeights(weights.Vector{mat.NewDense(1, 3, []float64{2, 3, 4})}))
		assert.InDelta(t, 2*1.5+3*-1+4, n.Forward([]float64{1.5, -1})[0], 1e-12)
	})

	t.Run("hidden", func(t *testing.T) {
		n := newNet(t, nil, []int{2, 1, 3}, DefaultConfig())
		layers := n.Layers()
		assert.True(t, layers[0].Linear())
		assert.False(t, layers[1].Linear())
		assert.Nil(t, layers[2].Weights())

		require.NoError(t, n.SetWeights(weights.Vector{
			mat.NewDense(1, 3, []float64{1, 1, 0}),
			mat.NewDense(3, 2, []float64{1, 0, -1, 0, 0, 1}),
		}))
		// Hidden value 5 passes through unsquashed.
		got := n.Forward([]float64{2, 3})
		assert.InDeltaSlice(t, []float64{sigmoid(5), sigmoid(-5), sigmoid(1)}, got, 1e-12)
	})
}

func TestForward_PanicsOnWrongWidth(t *testing.T) {
	n := newNet(t, nil, []int{3, 2}, DefaultConfig())
	assert.Panics(t, func() { n.Forward([]float64{1, 2}) })
}

func TestNew_Validation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := New(nil, []int{3}, DefaultConfig(), rng)
	assert.True(t, errors.Is(err, ErrInvalidTopology))

	_, err = New(nil, []int{3, 0, 1}, DefaultConfig(), rng)
	assert.True(t, errors.Is(err, ErrInvalidTopology))

	_, err = New(linearData(), []int{3, 1}, DefaultConfig(), rng)
	assert.True(t, errors.Is(err, ErrFeatureDimension))
}

func TestNew_Deterministic(t *testing.T) {
	a := newNet(t, nil, []int{4, 6, 3}, DefaultConfig())
	b := newNet(t, nil, []int{4, 6, 3}, DefaultConfig())
	assert.True(t, weights.Equal(a.Weights(), b.Weights()))

	for _, x := range weights.Flatten(a.Weights()) {
		assert.LessOrEqual(t, math.Abs(x), 0.01)
	}
}

func TestWeights_RoundTrip(t *testing.T) {
	n := newNet(t, linearData(), []int{2, 3, 1}, DefaultConfig())
	before, err := n.UpdateFitness()
	require.NoError(t, err)

	require.NoError(t, n.SetWeights(n.Weights()))
	after, err := n.UpdateFitness()
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestWeights_AreCopies(t *testing.T) {
	n := newNet(t, nil, []int{2, 3, 1}, DefaultConfig())
	v := n.Weights()
	v[0].Set(0, 0, 99)
	assert.NotEqual(t, 99.0, n.Weights()[0].At(0, 0))

	require.NoError(t, n.SetWeights(v))
	v[0].Set(0, 0, -99)
	assert.Equal(t, 99.0, n.Weights()[0].At(0, 0))
}

func TestSetWeights_ShapeMismatch(t *testing.T) {
	n := newNet(t, nil, []int{2, 3, 1}, DefaultConfig())
	orig := n.Weights()

	other := newNet(t, nil, []int{2, 4, 1}, DefaultConfig())
	err := n.SetWeights(other.Weights())
	require.Error(t, err)
	assert.True(t, errors.Is(err, weights.ErrShapeMismatch))
	assert.True(t, weights.Equal(orig, n.Weights()), "weights must be untouched on error")

	err = n.SetWeights(orig[:1])
	assert.True(t, errors.Is(err, weights.ErrShapeMismatch))
}

func TestClone_Independent(t *testing.T) {
	n := newNet(t, linearData(), []int{2, 3, 1}, DefaultConfig())
	_, err := n.UpdateFitness()
	require.NoError(t, err)

	c := n.Clone()
	assert.Equal(t, n.Fitness(), c.Fitness())
	assert.True(t, weights.Equal(n.Weights(), c.Weights()))

	c.layers[0].weights.Set(0, 0, 5)
	assert.NotEqual(t, 5.0, n.layers[0].weights.At(0, 0))
}

func TestLayers_AreCopies(t *testing.T) {
	n := newNet(t, nil, []int{2, 3, 1}, DefaultConfig())
	before := n.Weights()

	layers := n.Layers()
	layers[0].Weights().Set(0, 0, 1e6)
	layers[1].Weights().Set(0, 1, -1e6)

	assert.True(t, weights.Equal(before, n.Weights()))
	assert.NotSame(t, n.layers[0].weights, n.Layers()[0].Weights())
}

func TestUpdateFitness(t *testing.T) {
	t.Run("regression", func(t *testing.T) {
		data := []dataset.Sample{
			{Features: []float64{1, 0}, Label: "2"},
			{Features: []float64{0, 1}, Label: "-1"},
		}
		n := newNet(t, data, []int{2, 1}, DefaultConfig())
		require.NoError(t, n.SetWeights(weights.Vector{mat.NewDense(1, 3, []float64{1, 1, 0})}))

		fit, err := n.UpdateFitness()
		require.NoError(t, err)
		// Errors 1 and 2: (1/2 + 4/2) / 2.
		assert.InDelta(t, 1.25, fit, 1e-12)
		assert.Equal(t, fit, n.Fitness())
	})

	t.Run("classification", func(t *testing.T) {
		data := []dataset.Sample{{Features: []float64{0, 0}, Label: "2"}}
		cfg := DefaultConfig()
		cfg.Classification = true
		n := newNet(t, data, []int{2, 3}, cfg)
		require.NoError(t, n.SetWeights(weights.Vector{mat.NewDense(3, 3, nil)}))

		fit, err := n.UpdateFitness()
		require.NoError(t, err)
		// All outputs 0.5 against one-hot [0 1 0].
		assert.InDelta(t, (0.25+0.25+0.25)/2, fit, 1e-12)
	})

	t.Run("empty", func(t *testing.T) {
		n := newNet(t, nil, []int{2, 1}, DefaultConfig())
		_, err := n.UpdateFitness()
		assert.True(t, errors.Is(err, ErrEmptyDataSet))
	})
}

func TestLabelDecodeErrors(t *testing.T) {
	cls := DefaultConfig()
	cls.Classification = true

	tests := []struct {
		name  string
		label string
		cfg   Config
	}{
		{"class zero", "0", cls},
		{"class too large", "4", cls},
		{"class not int", "2.5", cls},
		{"class text", "D1", cls},
		{"regression text", "n/a", DefaultConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []dataset.Sample{
				{Features: []float64{0, 0}, Label: "1"},
				{Features: []float64{1, 1}, Label: tt.label},
			}
			n := newNet(t, data, []int{2, 3}, tt.cfg)
			before := n.Fitness()

			_, err := n.UpdateFitness()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLabelDecode))

			var le *LabelError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, 1, le.Sample)
			assert.Equal(t, tt.label, le.Label)
			assert.Equal(t, before, n.Fitness())
		})
	}
}

func TestTrain_EmptyMiniBatch(t *testing.T) {
	data := linearData()[:5]
	n := newNet(t, data, []int{2, 3, 1}, DefaultConfig())

	_, err := n.Train(rand.New(rand.NewSource(1)), TrainConfig{Epochs: 3})
	assert.True(t, errors.Is(err, ErrEmptyMiniBatch))

	empty := newNet(t, nil, []int{2, 3, 1}, DefaultConfig())
	_, err = empty.Train(rand.New(rand.NewSource(1)), TrainConfig{Epochs: 3})
	assert.True(t, errors.Is(err, ErrEmptyDataSet))
}

// TestTrain_MatchesNumericGradient checks that one full-batch epoch moves the
// weights by -learningRate times the finite-difference gradient of fitness.
func TestTrain_MatchesNumericGradient(t *testing.T) {
	data := linearData()
	cfg := DefaultConfig()
	cfg.LearningRate = 0.1
	cfg.InitRange = 0.5
	n := newNet(t, data, []int{2, 3, 1}, cfg)

	shape := n.Weights()
	x0 := weights.Flatten(shape)
	shifted := n.Clone()
	fitness := func(x []float64) float64 {
		v, err := weights.Unflatten(shape, x)
		require.NoError(t, err)
		require.NoError(t, shifted.SetWeights(v))
		f, err := shifted.UpdateFitness()
		require.NoError(t, err)
		return f
	}
	grad := fd.Gradient(nil, fitness, x0, &fd.Settings{Formula: fd.Central})

	_, err := n.Train(rand.New(rand.NewSource(2)), TrainConfig{Epochs: 1, BatchSize: len(data)})
	require.NoError(t, err)

	x1 := weights.Flatten(n.Weights())
	for i := range x0 {
		assert.InDelta(t, -cfg.LearningRate*grad[i], x1[i]-x0[i], 1e-6, "weight %d", i)
	}
}

func TestTrain_ReducesError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classification = true
	n := newNet(t, clusterData(), []int{2, 4, 2}, cfg)

	before, err := n.UpdateFitness()
	require.NoError(t, err)

	history, err := n.Train(rand.New(rand.NewSource(3)), TrainConfig{Epochs: 3000})
	require.NoError(t, err)
	assert.Len(t, history, 3000)

	after, err := n.UpdateFitness()
	require.NoError(t, err)
	assert.Less(t, after, before/2)

	report, err := n.Evaluate(rand.New(rand.NewSource(4)), 4)
	require.NoError(t, err)
	assert.Greater(t, report.Mean, 0.8)
}

func TestPredict(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classification = true
	n := newNet(t, nil, []int{2, 3}, cfg)
	require.NoError(t, n.SetWeights(weights.Vector{mat.NewDense(3, 3, []float64{
		0, 0, -1,
		0, 0, 2,
		0, 0, 1,
	})}))
	assert.Equal(t, 2.0, n.Predict([]float64{0.3, 0.3}))
}

func TestEvaluate_Regression(t *testing.T) {
	data := linearData()[:10]
	n := newNet(t, data, []int{2, 3, 1}, DefaultConfig())
	fit, err := n.UpdateFitness()
	require.NoError(t, err)

	report, err := n.Evaluate(rand.New(rand.NewSource(9)), 5)
	require.NoError(t, err)
	require.Len(t, report.Folds, 5)
	assert.False(t, report.Classification)
	// Equal folds: mean fold MSE is the overall MSE, twice the half-squared fitness.
	assert.InDelta(t, 2*fit, report.Mean, 1e-12)

	empty := newNet(t, nil, []int{2, 1}, DefaultConfig())
	_, err = empty.Evaluate(rand.New(rand.NewSource(9)), 5)
	assert.True(t, errors.Is(err, ErrEmptyDataSet))
}

func TestEvaluate_LabelErrorIndex(t *testing.T) {
	data := linearData()[:10]
	data[7].Label = "seven"
	n := newNet(t, data, []int{2, 3, 1}, DefaultConfig())

	for seed := int64(0); seed < 5; seed++ {
		_, err := n.Evaluate(rand.New(rand.NewSource(seed)), 3)
		var le *LabelError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 7, le.Sample, "seed %d", seed)
		assert.Equal(t, "seven", le.Label)
	}
}

func TestTrain_NonPositiveEpochs(t *testing.T) {
	n := newNet(t, linearData(), []int{2, 3, 1}, DefaultConfig())
	before := n.Weights()

	for _, epochs := range []int{0, -1, -100} {
		history, err := n.Train(rand.New(rand.NewSource(1)), TrainConfig{Epochs: epochs})
		require.NoError(t, err)
		assert.Empty(t, history)
	}
	assert.True(t, weights.Equal(before, n.Weights()))
}

func BenchmarkUpdateFitness(b *testing.B) {
	data := linearData()
	n, err := New(data, []int{2, 16, 1}, DefaultConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = n.UpdateFitness()
	}
}
