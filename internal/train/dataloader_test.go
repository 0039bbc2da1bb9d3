package train

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func sequentialDataset(t *testing.T, samples, features int) (*tensor.Tensor[float32, *cpu.CPUBackend], *tensor.Tensor[float32, *cpu.CPUBackend]) {
	t.Helper()
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{samples, features}, backend)
	y := tensor.Zeros[float32](tensor.Shape{samples}, backend)
	for i := 0; i < samples; i++ {
		for j := 0; j < features; j++ {
			x.Set(float32(i), i, j)
		}
		y.Set(float32(i), i)
	}
	return x, y
}

func TestDataLoader_BatchCountAndShapes(t *testing.T) {
	x, y := sequentialDataset(t, 10, 3)

	dl, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, dl.NumBatches(), "10 samples / 4 = 2 full + 1 partial")
	batches := dl.Batches()
	require.Len(t, batches, 3)
	assert.True(t, batches[0].X.Shape().Equal(tensor.Shape{4, 3}))
	assert.True(t, batches[2].X.Shape().Equal(tensor.Shape{2, 3}), "trailing partial batch")
	assert.True(t, batches[0].Y.Shape().Equal(tensor.Shape{4}))
}

func TestDataLoader_DropRemaining(t *testing.T) {
	x, y := sequentialDataset(t, 10, 3)

	dl, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 4, DropRemaining: true})
	require.NoError(t, err)

	assert.Equal(t, 2, dl.NumBatches())
	assert.Len(t, dl.Batches(), 2)
}

func TestDataLoader_UnshuffledPreservesOrder(t *testing.T) {
	x, y := sequentialDataset(t, 6, 1)

	dl, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 2})
	require.NoError(t, err)

	var got []float32
	for _, b := range dl.Batches() {
		got = append(got, b.Y.Data()...)
	}
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, got)
}

func TestDataLoader_ShuffleIsAPermutation(t *testing.T) {
	x, y := sequentialDataset(t, 32, 2)

	dl, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 5, Shuffle: true, Seed: 7})
	require.NoError(t, err)

	var got []float32
	for _, b := range dl.Batches() {
		got = append(got, b.Y.Data()...)
	}
	require.Len(t, got, 32)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i := 0; i < 32; i++ {
		assert.Equal(t, float32(i), got[i])
	}

	// X rows travel with their labels.
	for _, b := range dl.Batches() {
		xData := b.X.Data()
		for i, label := range b.Y.Data() {
			assert.Equal(t, label, xData[i*2])
		}
	}
}

func TestDataLoader_SeededShuffleIsDeterministic(t *testing.T) {
	x, y := sequentialDataset(t, 16, 1)

	a, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 4, Shuffle: true, Seed: 42})
	require.NoError(t, err)
	b, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 4, Shuffle: true, Seed: 42})
	require.NoError(t, err)

	ba, bb := a.Batches(), b.Batches()
	for i := range ba {
		assert.Equal(t, ba[i].Y.Data(), bb[i].Y.Data())
	}
}

func TestDataLoader_RejectsMismatchedSampleCounts(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{4, 2}, backend)
	y := tensor.Zeros[float32](tensor.Shape{5}, backend)

	_, err := NewDataLoader(x, y, DataLoaderConfig{})
	require.Error(t, err)
}

func TestDataLoader_TargetDevice(t *testing.T) {
	x, y := sequentialDataset(t, 4, 2)

	// The zero-value device is CPU; batches report it.
	dl, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 2, Device: tensor.CPU})
	require.NoError(t, err)
	for _, b := range dl.Batches() {
		assert.Equal(t, tensor.CPU, b.X.Device())
		assert.Equal(t, tensor.CPU, b.Y.Device())
	}

	// Unavailable targets fail at construction, before any batching.
	_, err = NewDataLoader(x, y, DataLoaderConfig{BatchSize: 2, Device: tensor.CUDA})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cuda")
}
