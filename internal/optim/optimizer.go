// Package optim trains network weights with interchangeable strategies:
// gradient-based backpropagation and two population-based metaheuristics,
// differential evolution and particle swarm optimization.
//
// Every strategy scores candidates with network.Network.UpdateFitness
// (lower is better) and treats the network's weights as one
// weights.Vector.
//
// Generations run strictly one after another. Within a generation all
// random draws are made on the calling goroutine in population order from
// the optimizer's own seeded generator, and only fitness evaluation is
// spread over workers, so two runs with the same seed, configuration and
// data produce identical populations.
package optim

import (
	"log/slog"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/network"
	"github.com/born-ml/evolve/internal/parallel"
)

// Optimizer is the base interface for all training strategies.
type Optimizer interface {
	// Run advances the optimizer by up to generations steps and stops early
	// once the best fitness falls below the configured threshold. The
	// threshold is only checked between generations.
	Run(generations int) (*Result, error)

	// Best returns a copy of the best network found so far and its fitness.
	Best() (*network.Network, float64)
}

// DefaultPopulationInitRange is the initial weight range used by the
// population strategies when Network.InitRange is zero.
const DefaultPopulationInitRange = 1.0

// Config is the configuration shared by all optimizers.
// A zero field selects the default, here and in the strategy configs that
// embed it, so a coefficient of exactly zero cannot be requested.
type Config struct {
	// Network holds the per-network settings. Population strategies use
	// DefaultPopulationInitRange when Network.InitRange is zero.
	Network network.Config

	// Threshold stops a run once the best fitness drops below it. Zero
	// selects the optimizer's default; a negative value disables early
	// stopping.
	Threshold float64

	// Seed for reproducibility. -1 = random.
	Seed int64

	Parallel parallel.Config // Fitness evaluation fan-out
	Logger   *slog.Logger    // Default: discard
}

// Stats summarizes a population after one generation.
type Stats struct {
	Generation int
	Best       float64
	Mean       float64
	StdDev     float64
}

// Result describes a finished Run.
type Result struct {
	Generations int     // Generations actually run
	Best        float64 // Best fitness at the end of the run
	Converged   bool    // Whether the threshold stopped the run
	History     []Stats // One entry per generation
}

// newRand returns the generator owned by one optimizer.
func newRand(seed int64) *rand.Rand {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // Deterministic seed for reproducibility
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

func summarize(generation int, fitness []float64) Stats {
	mean, std := stat.MeanStdDev(fitness, nil)
	if len(fitness) < 2 {
		std = 0
	}
	return Stats{
		Generation: generation,
		Best:       floats.Min(fitness),
		Mean:       mean,
		StdDev:     std,
	}
}

// populationNetwork resolves network settings for a population strategy.
func populationNetwork(cfg network.Config) network.Config {
	if cfg.InitRange == 0 {
		cfg.InitRange = DefaultPopulationInitRange
	}
	return cfg
}

// newPopulation creates size networks from rng, in order, and evaluates
// them with the given parallelism.
func newPopulation(size int, data []dataset.Sample, sizes []int, cfg network.Config,
	rng *rand.Rand, par parallel.Config) ([]*network.Network, error) {
	if len(data) == 0 {
		return nil, network.ErrEmptyDataSet
	}

	pop := make([]*network.Network, size)
	for i := range pop {
		n, err := network.New(data, sizes, cfg, rng)
		if err != nil {
			return nil, err
		}
		pop[i] = n
	}
	if err := evaluate(pop, par); err != nil {
		return nil, err
	}
	return pop, nil
}

// evaluate recomputes the fitness of every network.
func evaluate(nets []*network.Network, par parallel.Config) error {
	return parallel.ForErr(len(nets), func(i int) error {
		_, err := nets[i].UpdateFitness()
		return err
	}, par)
}

// run drives step until generations are exhausted or the best fitness
// drops below threshold. best is the fitness reported if no step runs.
func run(name string, generations int, threshold, best float64, logger *slog.Logger,
	step func() (Stats, error)) (*Result, error) {
	res := &Result{Best: best, History: make([]Stats, 0, max(generations, 0))}

	for g := 0; g < generations; g++ {
		stats, err := step()
		if err != nil {
			return res, err
		}
		res.Generations++
		res.Best = stats.Best
		res.History = append(res.History, stats)
		logger.Debug(name+" generation", "generation", stats.Generation,
			"best", stats.Best, "mean", stats.Mean, "stddev", stats.StdDev)

		if threshold > 0 && stats.Best < threshold {
			res.Converged = true
			logger.Info(name+" converged", "generation", stats.Generation, "best", stats.Best)
			break
		}
	}

	logger.Info(name+" finished", "generations", res.Generations, "best", res.Best)
	return res, nil
}

var (
	_ Optimizer = (*DifferentialEvolution)(nil)
	_ Optimizer = (*ParticleSwarm)(nil)
	_ Optimizer = (*Backprop)(nil)
)
