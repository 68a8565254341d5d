package optim

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/network"
	"github.com/born-ml/evolve/internal/parallel"
	"github.com/born-ml/evolve/internal/weights"
)

// DefaultDEThreshold is the fitness below which differential evolution
// stops early.
const DefaultDEThreshold = 0.008

// DEConfig holds configuration for differential evolution.
type DEConfig struct {
	Config

	// Zero selects the default for both fields.
	Beta          float64 // Difference vector scale (default: 0.1)
	CrossoverProb float64 // Probability of keeping the target's element (default: 0.5)
}

// DefaultDEConfig returns the default differential evolution settings.
func DefaultDEConfig() DEConfig {
	net := network.DefaultConfig()
	net.InitRange = DefaultPopulationInitRange
	return DEConfig{
		Config: Config{
			Network:   net,
			Threshold: DefaultDEThreshold,
			Seed:      -1,
			Parallel:  parallel.DefaultConfig(),
		},
		Beta:          0.1,
		CrossoverProb: 0.5,
	}
}

// DifferentialEvolution evolves a fixed-size population of networks.
//
// Each generation, every individual in turn is the target. Three distinct
// donors X1, X2, X3 are drawn uniformly from the whole population (the
// target itself is not excluded) to build the trial X1 + beta*(X2 - X3).
// Binomial crossover keeps each of the target's weights with probability
// CrossoverProb and takes the trial's otherwise. The offspring replaces the
// target only if its fitness is strictly lower.
//
// All trials of a generation are built from the population as it stood at
// the start of the generation, and replacements are applied once every
// offspring has been scored. The population is then re-scored and sorted
// best first.
//
// Example:
//
//	cfg := optim.DefaultDEConfig()
//	cfg.Seed = 42
//	de, err := optim.NewDifferentialEvolution(20, samples, []int{9, 16, 7}, cfg)
//	if err != nil {
//	    return err
//	}
//	res, err := de.Run(2000)
type DifferentialEvolution struct {
	population []*network.Network
	beta       float64
	crossover  float64
	threshold  float64
	generation int

	rng      *rand.Rand
	parallel parallel.Config
	logger   *slog.Logger
}

// NewDifferentialEvolution creates a population of size randomly
// initialized networks with the given layer sizes, all scored against data.
//
// size must be at least 3 so that three distinct donors exist.
func NewDifferentialEvolution(size int, data []dataset.Sample, sizes []int, cfg DEConfig) (*DifferentialEvolution, error) {
	if size < 3 {
		return nil, errors.Wrapf(ErrInvalidPopulationSize, "differential evolution needs at least 3 individuals, got %d", size)
	}
	if cfg.Beta == 0 {
		cfg.Beta = 0.1
	}
	if cfg.CrossoverProb == 0 {
		cfg.CrossoverProb = 0.5
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultDEThreshold
	}
	cfg.Network = populationNetwork(cfg.Network)

	rng := newRand(cfg.Seed)
	pop, err := newPopulation(size, data, sizes, cfg.Network, rng, cfg.Parallel)
	if err != nil {
		return nil, errors.Wrap(err, "initialize population")
	}

	d := &DifferentialEvolution{
		population: pop,
		beta:       cfg.Beta,
		crossover:  cfg.CrossoverProb,
		threshold:  cfg.Threshold,
		rng:        rng,
		parallel:   cfg.Parallel,
		logger:     loggerOrDiscard(cfg.Logger),
	}
	d.sort()
	return d, nil
}

// Run evolves the population for up to generations generations.
func (d *DifferentialEvolution) Run(generations int) (*Result, error) {
	return run("differential evolution", generations, d.threshold, d.population[0].Fitness(), d.logger, d.Step)
}

// Step runs a single generation.
//
// On error the population is left as it was before the generation.
func (d *DifferentialEvolution) Step() (Stats, error) {
	if _, err := d.evolve(); err != nil {
		return Stats{}, err
	}
	if err := evaluate(d.population, d.parallel); err != nil {
		return Stats{}, err
	}
	d.sort()
	d.generation++

	return summarize(d.generation, d.fitness()), nil
}

// evolve performs mutation, crossover and selection for every target and
// reports which targets were replaced.
func (d *DifferentialEvolution) evolve() ([]bool, error) {
	n := len(d.population)
	snapshot := make([]weights.Vector, n)
	for i, ind := range d.population {
		snapshot[i] = ind.Weights()
	}

	offspring := make([]*network.Network, n)
	for i := range d.population {
		child, err := d.offspring(snapshot, i)
		if err != nil {
			return nil, err
		}
		off := d.population[i].Clone()
		if err := off.SetWeights(child); err != nil {
			return nil, err
		}
		offspring[i] = off
	}

	if err := evaluate(offspring, d.parallel); err != nil {
		return nil, err
	}

	replaced := make([]bool, n)
	for i, off := range offspring {
		if off.Fitness() < d.population[i].Fitness() {
			d.population[i] = off
			replaced[i] = true
		}
	}
	return replaced, nil
}

// offspring builds the crossover of target with its mutated trial vector.
func (d *DifferentialEvolution) offspring(snapshot []weights.Vector, target int) (weights.Vector, error) {
	x1, x2, x3 := d.donors()

	diff, err := weights.Sub(snapshot[x2], snapshot[x3])
	if err != nil {
		return nil, err
	}
	trial, err := weights.AddScaled(snapshot[x1], d.beta, diff)
	if err != nil {
		return nil, err
	}
	return weights.Pick(snapshot[target], trial, d.crossover, d.rng)
}

// donors draws three distinct population indices.
func (d *DifferentialEvolution) donors() (int, int, int) {
	n := len(d.population)
	x1 := d.rng.Intn(n)
	x2 := d.rng.Intn(n)
	for x2 == x1 {
		x2 = d.rng.Intn(n)
	}
	x3 := d.rng.Intn(n)
	for x3 == x1 || x3 == x2 {
		x3 = d.rng.Intn(n)
	}
	return x1, x2, x3
}

func (d *DifferentialEvolution) sort() {
	sort.SliceStable(d.population, func(i, j int) bool {
		return d.population[i].Fitness() < d.population[j].Fitness()
	})
}

func (d *DifferentialEvolution) fitness() []float64 {
	f := make([]float64, len(d.population))
	for i, ind := range d.population {
		f[i] = ind.Fitness()
	}
	return f
}

// Best returns a copy of the fittest individual and its fitness.
func (d *DifferentialEvolution) Best() (*network.Network, float64) {
	best := d.population[0]
	return best.Clone(), best.Fitness()
}

// Population returns copies of every individual, best first.
func (d *DifferentialEvolution) Population() []*network.Network {
	out := make([]*network.Network, len(d.population))
	for i, ind := range d.population {
		out[i] = ind.Clone()
	}
	return out
}

// Generation returns the number of generations run so far.
func (d *DifferentialEvolution) Generation() int {
	return d.generation
}
