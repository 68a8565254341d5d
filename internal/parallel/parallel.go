// Package parallel fans independent per-individual work out over a bounded
// number of goroutines.
package parallel

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults sized to the machine's logical cores.
//
// A single fitness evaluation runs a whole data set through a network, so
// even two items are worth splitting.
func DefaultConfig() Config {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

// Sequential returns a configuration that runs everything on the calling
// goroutine.
func Sequential() Config {
	return Config{}
}

// ForErr executes f(i) for i in [0, n) and returns the first error.
// Falls back to sequential execution, stopping at the first error, if
// parallelism is disabled or n is too small. In parallel mode every chunk
// already started runs to completion.
func ForErr(n int, f func(i int) error, cfg Config) error {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*max(cfg.MinChunkSize, 1) {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := f(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
