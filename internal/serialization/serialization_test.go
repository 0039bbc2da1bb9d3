package serialization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/tensor"
)

func tempModelPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "model.rpl")
}

func makeRaw(t *testing.T, values []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), values)
	return raw
}

func TestRoundTrip(t *testing.T) {
	path := tempModelPath(t)

	dict := map[string]*tensor.RawTensor{
		"0.weight": makeRaw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}),
		"0.bias":   makeRaw(t, []float32{-1, 0.5, 7}, tensor.Shape{3}),
	}
	require.NoError(t, SaveStateDict(path, dict, "sequential", WriterOptions{
		Metadata: map[string]string{"note": "test"},
	}))

	loaded, modelType, err := LoadStateDict(path)
	require.NoError(t, err)
	assert.Equal(t, "sequential", modelType)
	require.Len(t, loaded, 2)

	assert.Equal(t, dict["0.weight"].AsFloat32(), loaded["0.weight"].AsFloat32())
	assert.Equal(t, dict["0.bias"].AsFloat32(), loaded["0.bias"].AsFloat32())
	assert.True(t, loaded["0.weight"].Shape().Equal(tensor.Shape{2, 3}))
}

func TestRoundTrip_Float16(t *testing.T) {
	path := tempModelPath(t)

	dict := map[string]*tensor.RawTensor{
		"w": makeRaw(t, []float32{0.5, -2.25, 1024}, tensor.Shape{3}),
	}
	require.NoError(t, SaveStateDict(path, dict, "linear", WriterOptions{Float16: true}))

	loaded, _, err := LoadStateDict(path)
	require.NoError(t, err)

	// These values are exactly representable in float16.
	assert.Equal(t, []float32{0.5, -2.25, 1024}, loaded["w"].AsFloat32())

	// Half precision halves the data payload.
	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, DTypeFloat16, r.Header().Tensors[0].DType)
	assert.Equal(t, int64(6), r.Header().Tensors[0].Size)
}

func TestReader_RejectsBadMagic(t *testing.T) {
	path := tempModelPath(t)
	require.NoError(t, os.WriteFile(path, []byte("NOPE-this-is-not-a-model-file"), 0o644))

	_, err := NewReader(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestReader_DetectsCorruptedData(t *testing.T) {
	path := tempModelPath(t)
	dict := map[string]*tensor.RawTensor{
		"w": makeRaw(t, []float32{1, 2, 3, 4}, tensor.Shape{4}),
	}
	require.NoError(t, SaveStateDict(path, dict, "linear", WriterOptions{}))

	// Flip a byte in the data section (the file tail).
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, blob, 0o644))

	_, _, err = LoadStateDict(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestWriter_DeterministicOrder(t *testing.T) {
	path := tempModelPath(t)
	dict := map[string]*tensor.RawTensor{
		"b": makeRaw(t, []float32{1}, tensor.Shape{1}),
		"a": makeRaw(t, []float32{2}, tensor.Shape{1}),
		"c": makeRaw(t, []float32{3}, tensor.Shape{1}),
	}
	require.NoError(t, SaveStateDict(path, dict, "m", WriterOptions{}))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, 0, 3)
	for _, meta := range r.Header().Tensors {
		names = append(names, meta.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
