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

// DefaultPSOThreshold is the personal-best fitness below which the swarm
// stops early.
const DefaultPSOThreshold = 0.01

// PSOConfig holds configuration for particle swarm optimization.
type PSOConfig struct {
	Config

	// Zero selects the default for every coefficient.
	Inertia   float64 // Velocity carried over, w (default: 0.1)
	Cognitive float64 // Pull towards the personal best, c1 (default: 3)
	Social    float64 // Pull towards the local best, c2 (default: 1.5)
}

// DefaultPSOConfig returns the default particle swarm settings.
func DefaultPSOConfig() PSOConfig {
	net := network.DefaultConfig()
	net.InitRange = DefaultPopulationInitRange
	return PSOConfig{
		Config: Config{
			Network:   net,
			Threshold: DefaultPSOThreshold,
			Seed:      -1,
			Parallel:  parallel.DefaultConfig(),
		},
		Inertia:   0.1,
		Cognitive: 3,
		Social:    1.5,
	}
}

// particle is one member of the swarm. local is a pointer so that sorting
// particles never changes which neighborhood they belong to.
type particle struct {
	position    *network.Network
	velocity    weights.Vector
	best        *network.Network
	bestFitness float64
	local       *neighborhood
}

// neighborhood is one local-best slot of the ring.
type neighborhood struct {
	id   int
	best *network.Network
}

// ParticleSwarm optimizes network weights with a ring-topology particle
// swarm.
//
// The swarm keeps size/2 local-best slots arranged in a ring; particle i is
// assigned to slot i mod size/2 for the whole run. Each generation:
//
//  1. every particle's velocity becomes
//     w*v + c1*r1*(pBest - x) + c2*r2*(lBest - x), with fresh r1, r2 in
//     [0, 1) for every weight;
//  2. the particle moves by its velocity and is re-scored, updating its
//     personal best on improvement;
//  3. a slot adopts a particle's personal best when it beats the slot;
//  4. each slot adopts its successor's weights when the successor was
//     strictly better before this step.
type ParticleSwarm struct {
	particles []*particle
	ring      []*neighborhood

	inertia    float64
	cognitive  float64
	social     float64
	threshold  float64
	generation int

	rng      *rand.Rand
	parallel parallel.Config
	logger   *slog.Logger
}

// NewParticleSwarm creates a swarm of size particles with random positions
// and velocities. Every slot starts at the best personal best among its
// particles.
//
// size must be at least 2 so that the ring has a slot.
func NewParticleSwarm(size int, data []dataset.Sample, sizes []int, cfg PSOConfig) (*ParticleSwarm, error) {
	if size < 2 {
		return nil, errors.Wrapf(ErrInvalidPopulationSize, "particle swarm needs at least 2 particles, got %d", size)
	}
	if cfg.Inertia == 0 {
		cfg.Inertia = 0.1
	}
	if cfg.Cognitive == 0 {
		cfg.Cognitive = 3
	}
	if cfg.Social == 0 {
		cfg.Social = 1.5
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultPSOThreshold
	}
	cfg.Network = populationNetwork(cfg.Network)
	initRange := cfg.Network.InitRange

	rng := newRand(cfg.Seed)
	positions, err := newPopulation(size, data, sizes, cfg.Network, rng, cfg.Parallel)
	if err != nil {
		return nil, errors.Wrap(err, "initialize swarm")
	}

	ring := make([]*neighborhood, size/2)
	for i := range ring {
		ring[i] = &neighborhood{id: i}
	}

	particles := make([]*particle, size)
	for i, pos := range positions {
		p := &particle{
			position:    pos,
			velocity:    weights.Uniform(pos.Weights(), initRange, rng),
			best:        pos.Clone(),
			bestFitness: pos.Fitness(),
			local:       ring[i%len(ring)],
		}
		if p.local.best == nil || p.bestFitness < p.local.best.Fitness() {
			p.local.best = p.best.Clone()
		}
		particles[i] = p
	}

	s := &ParticleSwarm{
		particles: particles,
		ring:      ring,
		inertia:   cfg.Inertia,
		cognitive: cfg.Cognitive,
		social:    cfg.Social,
		threshold: cfg.Threshold,
		rng:       rng,
		parallel:  cfg.Parallel,
		logger:    loggerOrDiscard(cfg.Logger),
	}
	s.sort()
	return s, nil
}

// Run advances the swarm for up to generations generations.
func (s *ParticleSwarm) Run(generations int) (*Result, error) {
	return run("particle swarm", generations, s.threshold, s.particles[0].bestFitness, s.logger, s.Step)
}

// Step runs a single generation.
func (s *ParticleSwarm) Step() (Stats, error) {
	if err := s.move(); err != nil {
		return Stats{}, err
	}
	s.updateBests()
	s.propagate()
	s.sort()
	s.generation++

	return summarize(s.generation, s.bestFitness()), nil
}

// move updates every velocity and position and re-scores the positions.
// Nothing is modified if a velocity cannot be formed.
func (s *ParticleSwarm) move() error {
	velocities := make([]weights.Vector, len(s.particles))
	positions := make([]weights.Vector, len(s.particles))
	for i, p := range s.particles {
		pos := p.position.Weights()
		v, err := s.velocity(p, pos)
		if err != nil {
			return err
		}
		next, err := weights.Add(pos, v)
		if err != nil {
			return err
		}
		velocities[i], positions[i] = v, next
	}

	moved := make([]*network.Network, len(s.particles))
	for i, p := range s.particles {
		m := p.position.Clone()
		if err := m.SetWeights(positions[i]); err != nil {
			return err
		}
		moved[i] = m
	}
	if err := evaluate(moved, s.parallel); err != nil {
		return err
	}

	for i, p := range s.particles {
		p.position = moved[i]
		p.velocity = velocities[i]
	}
	return nil
}

// velocity returns the particle's next velocity given its current position
// weights. r1 and r2 are drawn per element, matrix by matrix in row-major
// order.
func (s *ParticleSwarm) velocity(p *particle, pos weights.Vector) (weights.Vector, error) {
	pBest := p.best.Weights()
	lBest := p.local.best.Weights()
	for _, other := range []weights.Vector{p.velocity, pBest, lBest} {
		if err := weights.CheckShape(pos, other); err != nil {
			return nil, err
		}
	}

	next := weights.Zeros(pos)
	for k, m := range next {
		rows, _ := m.Dims()
		for r := 0; r < rows; r++ {
			dst := m.RawRowView(r)
			v := p.velocity[k].RawRowView(r)
			x := pos[k].RawRowView(r)
			pb := pBest[k].RawRowView(r)
			lb := lBest[k].RawRowView(r)
			for j := range dst {
				r1, r2 := s.rng.Float64(), s.rng.Float64()
				dst[j] = s.inertia*v[j] +
					s.cognitive*r1*(pb[j]-x[j]) +
					s.social*r2*(lb[j]-x[j])
			}
		}
	}
	return next, nil
}

// updateBests records improved personal bests and lets them claim their
// slot, in particle order.
func (s *ParticleSwarm) updateBests() {
	for _, p := range s.particles {
		if p.position.Fitness() < p.bestFitness {
			p.best = p.position.Clone()
			p.bestFitness = p.position.Fitness()
		}
		if p.bestFitness < p.local.best.Fitness() {
			p.local.best = p.best.Clone()
		}
	}
}

// propagate lets each slot adopt its successor's weights when the
// successor is strictly better. Every slot compares against the ring as it
// was before propagation, so weights move at most one hop per generation.
func (s *ParticleSwarm) propagate() {
	prev := make([]*network.Network, len(s.ring))
	for i, slot := range s.ring {
		prev[i] = slot.best
	}
	for i, slot := range s.ring {
		next := prev[(i+1)%len(prev)]
		if next.Fitness() < slot.best.Fitness() {
			slot.best = next.Clone()
		}
	}
}

// sort orders particles by personal-best fitness for reporting.
func (s *ParticleSwarm) sort() {
	sort.SliceStable(s.particles, func(i, j int) bool {
		return s.particles[i].bestFitness < s.particles[j].bestFitness
	})
}

func (s *ParticleSwarm) bestFitness() []float64 {
	f := make([]float64, len(s.particles))
	for i, p := range s.particles {
		f[i] = p.bestFitness
	}
	return f
}

// Best returns a copy of the best personal best in the swarm and its
// fitness.
func (s *ParticleSwarm) Best() (*network.Network, float64) {
	p := s.particles[0]
	return p.best.Clone(), p.bestFitness
}

// LocalBests returns copies of the local-best slots in ring order.
func (s *ParticleSwarm) LocalBests() []*network.Network {
	out := make([]*network.Network, len(s.ring))
	for i, slot := range s.ring {
		out[i] = slot.best.Clone()
	}
	return out
}

// Generation returns the number of generations run so far.
func (s *ParticleSwarm) Generation() int {
	return s.generation
}
