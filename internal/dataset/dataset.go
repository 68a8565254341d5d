// Package dataset loads and prepares the samples networks are trained on.
package dataset

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ErrEmpty is returned when a source yields no samples.
var ErrEmpty = errors.New("data set is empty")

// Sample is a normalized feature vector with its label. The label is kept
// as text and decoded as a 1-based class index or a real value by the
// network that consumes it.
type Sample struct {
	Features []float64
	Label    string
}

// Options controls how CSV records become samples.
type Options struct {
	// LabelColumn is the column holding the label. Negative values count
	// from the end, so -1 (the default) is the last column.
	LabelColumn int

	// Header skips the first record.
	Header bool

	// Comma is the field delimiter (default ',').
	Comma rune

	// EncodeLabels replaces every distinct label with its 1-based order of
	// first appearance, for data sets whose classes are not numbered.
	EncodeLabels bool
}

// DefaultOptions returns options for a headerless, comma separated file
// with the label in the last column.
func DefaultOptions() Options {
	return Options{LabelColumn: -1, Comma: ','}
}

// LoadCSV reads samples from the CSV file at path.
func LoadCSV(path string, opts Options) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open data set")
	}
	defer f.Close()

	samples, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return samples, nil
}

// Read parses CSV records from r. Every non-label column must be numeric.
func Read(r io.Reader, opts Options) ([]Sample, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse CSV")
	}
	if opts.Header && len(records) > 0 {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	width := len(records[0])
	if width < 2 {
		return nil, errors.Errorf("need at least one feature and a label, got %d columns", width)
	}
	labelCol := opts.LabelColumn
	if labelCol < 0 {
		labelCol += width
	}
	if labelCol < 0 || labelCol >= width {
		return nil, errors.Errorf("label column %d out of range for %d columns", opts.LabelColumn, width)
	}

	codes := make(map[string]int)
	samples := make([]Sample, len(records))
	for i, rec := range records {
		features := make([]float64, 0, width-1)
		for j, field := range rec {
			if j == labelCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", i+1, j)
			}
			features = append(features, v)
		}

		label := strings.TrimSpace(rec[labelCol])
		if opts.EncodeLabels {
			code, ok := codes[label]
			if !ok {
				code = len(codes) + 1
				codes[label] = code
			}
			label = strconv.Itoa(code)
		}
		samples[i] = Sample{Features: features, Label: label}
	}

	return samples, nil
}

// ZScore returns copies of samples with every feature column shifted to
// mean 0 and scaled to unit standard deviation. Constant columns are only
// centered.
func ZScore(samples []Sample) []Sample {
	if len(samples) == 0 {
		return nil
	}

	dims := len(samples[0].Features)
	column := make([]float64, len(samples))
	means := make([]float64, dims)
	stds := make([]float64, dims)
	for j := 0; j < dims; j++ {
		for i, s := range samples {
			column[i] = s.Features[j]
		}
		means[j], stds[j] = stat.PopMeanStdDev(column, nil)
	}

	out := make([]Sample, len(samples))
	for i, s := range samples {
		features := make([]float64, dims)
		for j, v := range s.Features {
			features[j] = v - means[j]
			if stds[j] > 0 {
				features[j] /= stds[j]
			}
		}
		out[i] = Sample{Features: features, Label: s.Label}
	}
	return out
}

// Shuffle returns a shuffled copy of samples. The input is not reordered.
func Shuffle(samples []Sample, rng *rand.Rand) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Folds splits samples into k contiguous folds. The first len%k folds get
// one extra sample.
func Folds(samples []Sample, k int) [][]Sample {
	if k <= 0 {
		return nil
	}
	if k > len(samples) {
		k = len(samples)
	}

	folds := make([][]Sample, k)
	base, extra := len(samples)/k, len(samples)%k
	start := 0
	for i := range folds {
		n := base
		if i < extra {
			n++
		}
		folds[i] = samples[start : start+n]
		start += n
	}
	return folds
}

// Classes returns the largest integer label, which is the number of output
// nodes a classifier needs for 1-based labels.
func Classes(samples []Sample) (int, error) {
	maxClass := 0
	for i, s := range samples {
		c, err := strconv.Atoi(s.Label)
		if err != nil {
			return 0, errors.Wrapf(err, "sample %d label %q", i, s.Label)
		}
		if c > maxClass {
			maxClass = c
		}
	}
	return maxClass, nil
}
