package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/network"
	"github.com/born-ml/evolve/internal/weights"
)

// File is a decoded weight file.
type File struct {
	Header  Header
	Weights weights.Vector
}

// Read decodes and validates a weight file from r.
func Read(r io.Reader) (*File, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, errors.Wrap(err, "read fixed header")
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", v, FormatVersion)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if dataSize > MaxDataSize {
		return nil, &ValidationError{Type: "data_size", Details: "data section too large"}
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, errors.Wrap(err, "parse header JSON")
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	padding := alignedOffset(int64(headerSize)) - int64(FixedHeaderSize) - int64(headerSize)
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return nil, errors.Wrap(err, "skip padding")
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrap(err, "read weight data")
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, err
	}

	//nolint:gosec // G115: dataSize is bounded by MaxDataSize
	if err := ValidateHeader(&header, int64(dataSize)); err != nil {
		return nil, err
	}

	// Matrices are validated to lie back to back from offset 0.
	shape := make(weights.Vector, len(header.Matrices))
	for i, m := range header.Matrices {
		shape[i] = mat.NewDense(m.Rows, m.Cols, nil)
	}
	values := make([]float64, len(data)/float64Size)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*float64Size:]))
	}
	vec, err := weights.Unflatten(shape, values)
	if err != nil {
		return nil, err
	}

	return &File{Header: header, Weights: vec}, nil
}

// LoadFile reads the weight file at path.
func LoadFile(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open weight file")
	}
	defer f.Close()

	file, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return file, nil
}

// Config returns the network settings recorded in the header.
func (f *File) Config() network.Config {
	cfg := network.DefaultConfig()
	cfg.Classification = f.Header.Classification
	if f.Header.LearningRate > 0 {
		cfg.LearningRate = f.Header.LearningRate
	}
	return cfg
}

// Network builds a network with the stored topology and weights, bound to
// data, and scores it when data is not empty.
func (f *File) Network(data []dataset.Sample) (*network.Network, error) {
	// The initial weights are overwritten; any generator will do.
	net, err := network.New(data, f.Header.Sizes, f.Config(), rand.New(rand.NewSource(0))) //nolint:gosec // Weights are replaced
	if err != nil {
		return nil, err
	}
	if err := net.SetWeights(f.Weights); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if _, err := net.UpdateFitness(); err != nil {
			return nil, err
		}
	}
	return net, nil
}
