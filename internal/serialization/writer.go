package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/evolve/internal/network"
	"github.com/born-ml/evolve/internal/weights"
)

// Write encodes the weights, topology and settings of net to w.
func Write(w io.Writer, net *network.Network, metadata map[string]string) error {
	sizes := net.Sizes()
	cfg := net.Config()
	header := Header{
		FormatVersion:  FormatVersion,
		CreatedAt:      time.Now().UTC(),
		Sizes:          sizes,
		Classification: cfg.Classification,
		LearningRate:   cfg.LearningRate,
		Metadata:       metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var flags uint32
	if len(metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if f := net.Fitness(); !math.IsNaN(f) && !math.IsInf(f, 0) {
		header.Fitness = &f
		flags |= FlagHasFitness
	}

	vec := net.Weights()
	var offset int64
	for i, m := range vec {
		rows, cols := m.Dims()
		size := int64(rows * cols * float64Size)
		header.Matrices = append(header.Matrices, MatrixMeta{
			Name:   fmt.Sprintf("layer.%d.weight", i),
			Rows:   rows,
			Cols:   cols,
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	values := weights.Flatten(vec)
	data := make([]byte, len(values)*float64Size)
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[i*float64Size:], math.Float64bits(v))
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	checksum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignedOffset(int64(len(headerJSON))) - int64(FixedHeaderSize+len(headerJSON))
	for _, part := range [][]byte{fixed, headerJSON, make([]byte, padding), data} {
		if _, err := w.Write(part); err != nil {
			return errors.Wrap(err, "write weight file")
		}
	}
	return nil
}

// SaveFile writes net to the file at path, replacing it if it exists.
func SaveFile(path string, net *network.Network, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create weight file")
	}
	if err := Write(f, net, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
