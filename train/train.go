// Package train provides the batching and training loop utilities:
// DataLoader, Trainer and callbacks such as EarlyStopping.
//
// Example:
//
//	model := nn.NewSequential[*cpu.Backend]("mlp", ...)
//	trainer := train.NewTrainer[*cpu.Backend](model,
//	    nn.NewMSELoss[*cpu.Backend](),
//	    optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.01}),
//	    train.TrainerConfig[*cpu.Backend]{
//	        Callbacks: []train.Callback[*cpu.Backend]{
//	            train.NewEarlyStopping[*cpu.Backend](5),
//	        },
//	    })
//
//	dl, _ := train.NewDataLoader(x, y, train.DataLoaderConfig{BatchSize: 32, Shuffle: true})
//	err := trainer.Train(ctx, dl, valDL, 100)
package train

import (
	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/optim"
	"github.com/ripple-ml/ripple/internal/tensor"
	"github.com/ripple-ml/ripple/internal/train"
)

// Batch is one slice of a dataset.
type Batch[B tensor.Backend] = train.Batch[B]

// DataLoader slices a dataset into batches, optionally shuffling
// between epochs.
type DataLoader[B tensor.Backend] = train.DataLoader[B]

// DataLoaderConfig configures a DataLoader. A zero BatchSize defaults
// to 32.
type DataLoaderConfig = train.DataLoaderConfig

// NewDataLoader creates a loader over aligned input and target tensors.
func NewDataLoader[B tensor.Backend](x, y *tensor.Tensor[float32, B], config DataLoaderConfig) (*DataLoader[B], error) {
	return train.NewDataLoader(x, y, config)
}

// Trainer runs the epoch/batch training loop: forward, loss, backward,
// optimizer step, per-batch reset. It records loss and metric history
// and honors context cancellation.
type Trainer[B tensor.Backend] = train.Trainer[B]

// TrainerConfig holds the optional trainer knobs: metrics, callbacks
// and the progress bar.
type TrainerConfig[B tensor.Backend] = train.TrainerConfig[B]

// NewTrainer creates a trainer for the model, loss and optimizer.
func NewTrainer[B tensor.Backend](model nn.Module[B], loss nn.Loss[B], optimizer optim.Optimizer, config TrainerConfig[B]) *Trainer[B] {
	return train.NewTrainer(model, loss, optimizer, config)
}

// Callback observes trainer progress at epoch boundaries.
type Callback[B tensor.Backend] = train.Callback[B]

// EarlyStopping stops training when a monitored metric stops improving
// and restores the best-seen model state.
type EarlyStopping[B tensor.Backend] = train.EarlyStopping[B]

// NewEarlyStopping creates an early stopping callback watching
// "val_loss" with the given patience. A patience of 0 defaults to 3.
func NewEarlyStopping[B tensor.Backend](patience int) *EarlyStopping[B] {
	return train.NewEarlyStopping[B](patience)
}
