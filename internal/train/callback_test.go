package train

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/optim"
)

// runEpochs feeds a fixed loss series through the callback as if the
// trainer had recorded it, mutating the model weights every epoch so
// snapshot restoration is observable.
func runEpochs(t *Trainer[*cpu.CPUBackend], cb Callback[*cpu.CPUBackend], losses []float32) int {
	model := t.Model().(*nn.Sequential[*cpu.CPUBackend])
	for epoch, loss := range losses {
		weights := model.Parameters()[0].Tensor().Data()
		weights[0] = float32(epoch + 1) // marker for the epoch that produced this state

		t.record("val_loss", loss)
		cb.OnEpochEnd(t, epoch+1)
		if t.Aborted() {
			return epoch + 1
		}
	}
	return len(losses)
}

func newCallbackTrainer(t *testing.T) *Trainer[*cpu.CPUBackend] {
	t.Helper()
	backend := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend]("m", nn.NewLinear(2, 2, false, backend))
	return NewTrainer[*cpu.CPUBackend](model, nn.NewMSELoss[*cpu.CPUBackend](),
		optim.NewSGD(model.Parameters(), optim.SGDConfig{}),
		TrainerConfig[*cpu.CPUBackend]{})
}

func TestEarlyStopping_AbortsAfterPatienceExhausted(t *testing.T) {
	trainer := newCallbackTrainer(t)
	cb := NewEarlyStopping[*cpu.CPUBackend](3)

	// Best at epoch 2, then three straight regressions.
	stopped := runEpochs(trainer, cb, []float32{1.0, 0.9, 0.95, 0.97, 0.99})

	assert.Equal(t, 5, stopped)
	assert.True(t, trainer.Aborted())

	// The weights are restored to the epoch-2 snapshot.
	weights := trainer.Model().Parameters()[0].Tensor().Data()
	assert.Equal(t, float32(2), weights[0])
}

func TestEarlyStopping_DoesNotStopWhileImproving(t *testing.T) {
	trainer := newCallbackTrainer(t)
	cb := NewEarlyStopping[*cpu.CPUBackend](2)

	stopped := runEpochs(trainer, cb, []float32{1.0, 0.8, 0.6, 0.4, 0.2})
	assert.Equal(t, 5, stopped)
	assert.False(t, trainer.Aborted())
}

func TestEarlyStopping_IntermittentImprovementResetsPatience(t *testing.T) {
	trainer := newCallbackTrainer(t)
	cb := NewEarlyStopping[*cpu.CPUBackend](2)

	// Misses at epochs 2 and 4 never accumulate to the patience of 2.
	stopped := runEpochs(trainer, cb, []float32{1.0, 1.1, 0.9, 0.95, 0.8, 0.7})
	assert.Equal(t, 6, stopped)
	assert.False(t, trainer.Aborted())
}

func TestEarlyStopping_MinDelta(t *testing.T) {
	trainer := newCallbackTrainer(t)
	cb := NewEarlyStopping[*cpu.CPUBackend](2)
	cb.MinDelta = 0.05

	// Drops smaller than MinDelta do not count as improvement.
	stopped := runEpochs(trainer, cb, []float32{1.0, 0.99, 0.98})
	assert.Equal(t, 3, stopped)
	assert.True(t, trainer.Aborted())
}

func TestEarlyStopping_EndToEnd(t *testing.T) {
	// Full loop integration: training with a generous epoch budget stops
	// on its own once the validation loss plateaus.
	backend := cpu.New()
	x, y := xorData(t)

	model := xorModel(backend)
	cb := NewEarlyStopping[*cpu.CPUBackend](10)
	trainer := NewTrainer[*cpu.CPUBackend](model, nn.NewMSELoss[*cpu.CPUBackend](),
		optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.05}),
		TrainerConfig[*cpu.CPUBackend]{Callbacks: []Callback[*cpu.CPUBackend]{cb}})

	dl, err := NewDataLoader(x, y, DataLoaderConfig{BatchSize: 4})
	require.NoError(t, err)
	require.NoError(t, trainer.Train(context.Background(), dl, dl, 2000))

	if trainer.Aborted() {
		assert.Less(t, len(trainer.History("loss")), 2000)
	}
}
