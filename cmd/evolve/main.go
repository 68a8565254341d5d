// Package main provides the evolve CLI: train a feedforward network on a
// CSV data set with backpropagation, differential evolution or particle
// swarm optimization.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/evolve/dataset"
	"github.com/born-ml/evolve/nn"
	"github.com/born-ml/evolve/optim"
)

type options struct {
	data           string
	label          string
	header         bool
	encode         bool
	classification bool
	hidden         string
	method         string
	pop            int
	generations    int
	epochs         int
	seed           int64
	folds          int
	initRange      float64
	save           string
	verbose        bool
}

func main() {
	var o options
	flag.StringVar(&o.data, "data", "", "CSV data set (required)")
	flag.StringVar(&o.label, "label", "last", "label column (first|last)")
	flag.BoolVar(&o.header, "header", false, "skip the first record")
	flag.BoolVar(&o.encode, "encode", false, "number textual class labels by first appearance")
	flag.BoolVar(&o.classification, "classification", false, "decode labels as 1-based classes")
	flag.StringVar(&o.hidden, "hidden", "16", "hidden layer widths (comma-separated)")
	flag.StringVar(&o.method, "method", "backprop", "training method (backprop|de|pso)")
	flag.IntVar(&o.pop, "pop", 20, "population or swarm size")
	flag.IntVar(&o.generations, "generations", 2000, "generations for de and pso")
	flag.IntVar(&o.epochs, "epochs", 10000, "epochs for backprop")
	flag.Int64Var(&o.seed, "seed", 1, "random seed (-1=time)")
	flag.IntVar(&o.folds, "folds", 10, "cross-validation folds")
	flag.Float64Var(&o.initRange, "init", 0, "initial weights drawn from U(-init, init) (0=method default)")
	flag.StringVar(&o.save, "save", "", "write the best network's weights to this file")
	flag.BoolVar(&o.verbose, "v", false, "log every generation")
	flag.Parse()

	if strings.TrimSpace(o.data) == "" {
		fmt.Fprintln(os.Stderr, "Error: -data is required")
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(o, os.Stdout, logger); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(o options, w io.Writer, logger *slog.Logger) error {
	samples, err := load(o)
	if err != nil {
		return err
	}

	sizes, err := topology(o, samples)
	if err != nil {
		return err
	}
	logger.Info("data set loaded", "samples", len(samples), "topology", sizes)

	opt, err := newOptimizer(o, samples, sizes, logger)
	if err != nil {
		return err
	}

	steps := o.generations
	if o.method == "backprop" {
		steps = o.epochs
	}
	start := time.Now()
	res, err := opt.Run(steps)
	if err != nil {
		return errors.Wrap(err, o.method)
	}
	net, fitness := opt.Best()

	fmt.Fprintf(w, "method:      %s\n", o.method)
	fmt.Fprintf(w, "generations: %d (converged: %t, %s)\n", res.Generations, res.Converged,
		time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(w, "fitness:     %.6f\n", fitness)

	report, err := net.Evaluate(rand.New(rand.NewSource(o.seed)), o.folds) //nolint:gosec // Deterministic seed for reproducibility
	if err != nil {
		return errors.Wrap(err, "evaluate")
	}
	printReport(w, report)

	if o.save != "" {
		meta := map[string]string{"method": o.method, "data": o.data}
		if err := nn.Save(o.save, net, meta); err != nil {
			return err
		}
		logger.Info("weights saved", "path", o.save)
	}
	return nil
}

func load(o options) ([]dataset.Sample, error) {
	opts := dataset.DefaultOptions()
	opts.Header = o.header
	opts.EncodeLabels = o.encode
	switch o.label {
	case "first":
		opts.LabelColumn = 0
	case "last":
		opts.LabelColumn = -1
	default:
		return nil, errors.Errorf("unknown label column %q (want first or last)", o.label)
	}

	samples, err := dataset.LoadCSV(o.data, opts)
	if err != nil {
		return nil, err
	}
	return dataset.ZScore(samples), nil
}

// topology returns the layer widths: features, hidden layers, then one
// output per class or a single regression output.
func topology(o options, samples []dataset.Sample) ([]int, error) {
	hidden, err := parseWidths(o.hidden)
	if err != nil {
		return nil, err
	}

	outputs := 1
	if o.classification {
		if outputs, err = dataset.Classes(samples); err != nil {
			return nil, err
		}
	}

	sizes := append([]int{len(samples[0].Features)}, hidden...)
	return append(sizes, outputs), nil
}

func parseWidths(s string) ([]int, error) {
	var widths []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			return nil, errors.Errorf("invalid layer width %q", f)
		}
		widths = append(widths, n)
	}
	return widths, nil
}

func newOptimizer(o options, samples []dataset.Sample, sizes []int, logger *slog.Logger) (optim.Optimizer, error) {
	base := optim.Config{
		Network:  nn.DefaultConfig(),
		Seed:     o.seed,
		Parallel: optim.DefaultParallelConfig(),
		Logger:   logger,
	}
	base.Network.Classification = o.classification
	base.Network.InitRange = o.initRange

	switch o.method {
	case "backprop":
		return optim.NewBackprop(samples, sizes, optim.BackpropConfig{Config: base})
	case "de":
		return optim.NewDifferentialEvolution(o.pop, samples, sizes, optim.DEConfig{Config: base})
	case "pso":
		return optim.NewParticleSwarm(o.pop, samples, sizes, optim.PSOConfig{Config: base})
	default:
		return nil, errors.Errorf("unknown method %q (want backprop, de or pso)", o.method)
	}
}

func printReport(w io.Writer, r *nn.EvalReport) {
	metric := "mse"
	if r.Classification {
		metric = "accuracy"
	}
	for i, score := range r.Folds {
		fmt.Fprintf(w, "fold %2d %s: %.4f\n", i+1, metric, score)
	}
	fmt.Fprintf(w, "mean %s:   %.4f\n", metric, r.Mean)
}
