// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset loads and prepares the samples that networks are trained
// and scored on.
//
// Samples are read from CSV, one per record, with the label in a
// configurable column and every other column numeric:
//
//	opts := dataset.DefaultOptions()
//	opts.Header = true
//	samples, err := dataset.LoadCSV("iris.csv", opts)
//	if err != nil {
//	    return err
//	}
//	samples = dataset.ZScore(samples)
package dataset

import (
	"io"
	"math/rand"

	"github.com/born-ml/evolve/internal/dataset"
)

// Sample is a feature vector with its textual label.
type Sample = dataset.Sample

// Options controls how CSV records become samples.
type Options = dataset.Options

// ErrEmpty is returned when a source yields no samples.
var ErrEmpty = dataset.ErrEmpty

// DefaultOptions returns options for a headerless, comma separated file
// with the label in the last column.
func DefaultOptions() Options {
	return dataset.DefaultOptions()
}

// LoadCSV reads samples from the CSV file at path.
func LoadCSV(path string, opts Options) ([]Sample, error) {
	return dataset.LoadCSV(path, opts)
}

// Read parses CSV records from r.
func Read(r io.Reader, opts Options) ([]Sample, error) {
	return dataset.Read(r, opts)
}

// ZScore returns a copy of samples with every feature standardized to zero
// mean and unit variance.
func ZScore(samples []Sample) []Sample {
	return dataset.ZScore(samples)
}

// Shuffle returns a shuffled copy of samples.
func Shuffle(samples []Sample, rng *rand.Rand) []Sample {
	return dataset.Shuffle(samples, rng)
}

// Folds splits samples into k contiguous folds of near equal size.
func Folds(samples []Sample, k int) [][]Sample {
	return dataset.Folds(samples, k)
}

// Classes returns the number of output nodes needed for 1-based class
// labels.
func Classes(samples []Sample) (int, error) {
	return dataset.Classes(samples)
}
