// Package train implements the training loop on top of the
// differentiation engine: batched data loading, epoch orchestration,
// metric history and callbacks.
package train

import (
	"fmt"
	"math/rand"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Batch is one mini-batch of inputs and targets.
type Batch[B tensor.Backend] struct {
	X *tensor.Tensor[float32, B]
	Y *tensor.Tensor[float32, B]
}

// DataLoader slices a dataset tensor pair into mini-batches along the
// first dimension, optionally shuffling sample order each epoch.
type DataLoader[B tensor.Backend] struct {
	x, y *tensor.Tensor[float32, B]

	batchSize     int
	shuffle       bool
	dropRemaining bool
	device        tensor.Device
	rng           *rand.Rand
}

// DataLoaderConfig configures a DataLoader.
type DataLoaderConfig struct {
	BatchSize     int           // samples per batch (default: 32)
	Shuffle       bool          // reshuffle sample order every epoch
	DropRemaining bool          // drop a trailing batch smaller than BatchSize
	Seed          int64         // shuffle seed; 0 means unseeded
	Device        tensor.Device // device batches are delivered on (default: CPU)
}

// NewDataLoader creates a loader over x and y, which must agree on the
// number of samples (their first dimension). Batches are moved to the
// configured target device as they are produced.
func NewDataLoader[B tensor.Backend](x, y *tensor.Tensor[float32, B], config DataLoaderConfig) (*DataLoader[B], error) {
	if len(x.Shape()) < 1 || len(y.Shape()) < 1 {
		return nil, fmt.Errorf("dataloader: inputs must have a sample dimension")
	}
	if x.Shape()[0] != y.Shape()[0] {
		return nil, fmt.Errorf("dataloader: %d input samples vs %d targets", x.Shape()[0], y.Shape()[0])
	}
	if config.BatchSize == 0 {
		config.BatchSize = 32
	}
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("dataloader: invalid batch size %d", config.BatchSize)
	}
	if err := tensor.CheckAvailable(config.Device); err != nil {
		return nil, fmt.Errorf("dataloader: %w", err)
	}
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewSource(config.Seed)) //nolint:gosec // reproducible shuffling, not crypto
	}
	return &DataLoader[B]{
		x:             x,
		y:             y,
		batchSize:     config.BatchSize,
		shuffle:       config.Shuffle,
		dropRemaining: config.DropRemaining,
		device:        config.Device,
		rng:           rng,
	}, nil
}

// NumSamples returns the dataset size.
func (d *DataLoader[B]) NumSamples() int { return d.x.Shape()[0] }

// NumBatches returns the number of batches per epoch.
func (d *DataLoader[B]) NumBatches() int {
	n := d.NumSamples() / d.batchSize
	if !d.dropRemaining && d.NumSamples()%d.batchSize != 0 {
		n++
	}
	return n
}

// Batches materializes one epoch of batches. With shuffling enabled each
// call produces a fresh permutation.
func (d *DataLoader[B]) Batches() []Batch[B] {
	n := d.NumSamples()
	order := make([]int32, n)
	for i := range order {
		order[i] = int32(i)
	}
	if d.shuffle {
		shuffleFn := rand.Shuffle
		if d.rng != nil {
			shuffleFn = d.rng.Shuffle
		}
		shuffleFn(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	batches := make([]Batch[B], 0, d.NumBatches())
	for start := 0; start < n; start += d.batchSize {
		end := start + d.batchSize
		if end > n {
			if d.dropRemaining {
				break
			}
			end = n
		}
		batches = append(batches, Batch[B]{
			X: d.toDevice(gatherRows(d.x, order[start:end])),
			Y: d.toDevice(gatherRows(d.y, order[start:end])),
		})
	}
	return batches
}

// toDevice moves a batch tensor to the loader's target device. The
// device was validated at construction, so a transfer failure here is a
// contract violation.
func (d *DataLoader[B]) toDevice(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	moved, err := t.ToDevice(d.device)
	if err != nil {
		panic(fmt.Sprintf("dataloader: %v", err))
	}
	return moved
}

// gatherRows selects samples by index along the first dimension. The
// tensor is viewed as a (samples, features) matrix for the gather and
// reshaped back afterwards.
func gatherRows[B tensor.Backend](t *tensor.Tensor[float32, B], idx []int32) *tensor.Tensor[float32, B] {
	shape := t.Shape()
	n := shape[0]
	features := shape.NumElements() / n

	b := t.Backend()
	flat := t.Reshape(n, features)
	indices := tensor.MustFromSlice(idx, tensor.Shape{len(idx)}, b)
	rows := tensor.New[float32](b.Lookup(flat.Raw(), indices.Raw()), b)

	outShape := append(tensor.Shape{len(idx)}, shape[1:]...)
	return rows.Reshape(outShape...)
}
