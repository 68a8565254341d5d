package serialization

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/evolve/internal/dataset"
	"github.com/born-ml/evolve/internal/network"
	"github.com/born-ml/evolve/internal/weights"
)

func samples() []dataset.Sample {
	return []dataset.Sample{
		{Features: []float64{0, 0, 1}, Label: "1"},
		{Features: []float64{1, 0, 0}, Label: "2"},
		{Features: []float64{0, 1, 0}, Label: "3"},
	}
}

func trainedNet(t *testing.T) *network.Network {
	t.Helper()
	cfg := network.DefaultConfig()
	cfg.Classification = true
	cfg.LearningRate = 0.25
	net, err := network.New(samples(), []int{3, 4, 3}, cfg, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	_, err = net.UpdateFitness()
	require.NoError(t, err)
	return net
}

func encode(t *testing.T, net *network.Network) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, net, map[string]string{"method": "de"}))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	net := trainedNet(t)
	raw := encode(t, net)

	f, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 3}, f.Header.Sizes)
	assert.True(t, f.Header.Classification)
	assert.Equal(t, 0.25, f.Header.LearningRate)
	assert.Equal(t, "de", f.Header.Metadata["method"])
	require.NotNil(t, f.Header.Fitness)
	assert.Equal(t, net.Fitness(), *f.Header.Fitness)
	assert.True(t, weights.Equal(net.Weights(), f.Weights))

	restored, err := f.Network(samples())
	require.NoError(t, err)
	assert.Equal(t, net.Fitness(), restored.Fitness())
	assert.Equal(t, net.Forward([]float64{1, 1, 0}), restored.Forward([]float64{1, 1, 0}))
	assert.Equal(t, net.Config(), restored.Config())
}

func TestDataIsAligned(t *testing.T) {
	raw := encode(t, trainedNet(t))
	f, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)

	var dataSize int64
	for _, m := range f.Header.Matrices {
		dataSize += m.Size
	}
	assert.Equal(t, int64(0), (int64(len(raw))-dataSize)%HeaderAlignment)
}

func TestSaveLoadFile(t *testing.T) {
	net := trainedNet(t)
	path := filepath.Join(t.TempDir(), "best.evnn")
	require.NoError(t, SaveFile(path, net, nil))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, f.Header.Metadata)
	assert.True(t, weights.Equal(net.Weights(), f.Weights))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.evnn"))
	assert.Error(t, err)
}

func TestReadErrors(t *testing.T) {
	good := encode(t, trainedNet(t))

	tests := []struct {
		name    string
		corrupt func(b []byte) []byte
		want    error
	}{
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrInvalidMagic},
		{"version", func(b []byte) []byte { b[4] = 9; return b }, ErrUnsupportedVersion},
		{"header size", func(b []byte) []byte { b[22] = 0xff; return b }, ErrHeaderTooLarge},
		{"checksum", func(b []byte) []byte { b[len(b)-1] ^= 0xff; return b }, ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.corrupt(append([]byte(nil), good...))
			_, err := Read(bytes.NewReader(raw))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Read(bytes.NewReader(good[:10]))
	assert.Error(t, err)
}

func TestValidateHeader(t *testing.T) {
	valid := func() *Header {
		return &Header{
			Sizes: []int{2, 3, 1},
			Matrices: []MatrixMeta{
				{Name: "layer.0.weight", Rows: 3, Cols: 3, Offset: 0, Size: 72},
				{Name: "layer.1.weight", Rows: 1, Cols: 4, Offset: 72, Size: 32},
			},
		}
	}
	require.NoError(t, ValidateHeader(valid(), 104))

	tests := []struct {
		name   string
		modify func(h *Header)
		size   int64
		typ    string
	}{
		{"too few layers", func(h *Header) { h.Sizes = []int{2} }, 104, "topology"},
		{"empty layer", func(h *Header) { h.Sizes[1] = 0 }, 104, "topology"},
		{"missing matrix", func(h *Header) { h.Matrices = h.Matrices[:1] }, 104, "matrix_count"},
		{"shape", func(h *Header) { h.Matrices[1].Cols = 3 }, 104, "shape"},
		{"size", func(h *Header) { h.Matrices[0].Size = 64 }, 104, "size"},
		{"overlap", func(h *Header) { h.Matrices[1].Offset = 64 }, 104, "offset"},
		{"truncated data", func(h *Header) {}, 100, "out_of_bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid()
			tt.modify(h)
			err := ValidateHeader(h, tt.size)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.typ, verr.Type)
			assert.True(t, errors.Is(err, ErrInvalidLayout))
		})
	}
}

func TestNetwork_TopologyMismatch(t *testing.T) {
	f, err := Read(bytes.NewReader(encode(t, trainedNet(t))))
	require.NoError(t, err)

	wide := []dataset.Sample{{Features: []float64{1, 2, 3, 4}, Label: "1"}}
	_, err = f.Network(wide)
	assert.True(t, errors.Is(err, network.ErrFeatureDimension))
}
