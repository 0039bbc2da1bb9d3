package train

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/optim"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Trainer drives the epoch/batch loop: forward, loss, backward through
// the module's continuation, optimizer step. It records a history of
// scalar series ("loss", "val_loss", metric labels prefixed with
// "val_") that callbacks can monitor.
type Trainer[B tensor.Backend] struct {
	model     nn.Module[B]
	optimizer optim.Optimizer
	loss      nn.Loss[B]
	metrics   []nn.Metric[B]
	callbacks []Callback[B]

	history  map[string][]float32
	aborted  bool
	progress bool
}

// TrainerConfig configures a Trainer.
type TrainerConfig[B tensor.Backend] struct {
	Metrics   []nn.Metric[B]
	Callbacks []Callback[B]
	// Progress draws a per-epoch progress bar on stderr.
	Progress bool
}

// NewTrainer wires a model, loss and optimizer into a trainer.
func NewTrainer[B tensor.Backend](model nn.Module[B], loss nn.Loss[B], optimizer optim.Optimizer, config TrainerConfig[B]) *Trainer[B] {
	return &Trainer[B]{
		model:     model,
		optimizer: optimizer,
		loss:      loss,
		metrics:   config.Metrics,
		callbacks: config.Callbacks,
		history:   make(map[string][]float32),
		progress:  config.Progress,
	}
}

// Model returns the module being trained.
func (t *Trainer[B]) Model() nn.Module[B] { return t.model }

// History returns the recorded series for key, in epoch order.
func (t *Trainer[B]) History(key string) []float32 { return t.history[key] }

// Abort requests a stop after the current epoch. Callbacks use this to
// end training early.
func (t *Trainer[B]) Abort() { t.aborted = true }

// Aborted reports whether a stop has been requested.
func (t *Trainer[B]) Aborted() bool { return t.aborted }

// Train runs up to epochs passes over the training loader, validating
// against val (optional, may be nil) after each epoch. The context
// cancels between batches.
func (t *Trainer[B]) Train(ctx context.Context, train, val *DataLoader[B], epochs int) error {
	t.aborted = false
	for epoch := 1; epoch <= epochs; epoch++ {
		loss, err := t.trainEpoch(ctx, train, epoch, epochs)
		if err != nil {
			return err
		}
		t.record("loss", loss)

		logLine := fmt.Sprintf("epoch %d/%d loss=%.6f", epoch, epochs, loss)
		if val != nil {
			valLoss, scores := t.Evaluate(val)
			t.record("val_loss", valLoss)
			logLine += fmt.Sprintf(" val_loss=%.6f", valLoss)
			for _, m := range t.metrics {
				key := "val_" + m.Label()
				t.record(key, scores[m.Label()])
				logLine += fmt.Sprintf(" %s=%.4f", key, scores[m.Label()])
			}
		}
		klog.V(1).Info(logLine)

		for _, cb := range t.callbacks {
			cb.OnEpochEnd(t, epoch)
		}
		if t.aborted {
			klog.V(1).Infof("training aborted after epoch %d", epoch)
			break
		}
	}
	return nil
}

func (t *Trainer[B]) trainEpoch(ctx context.Context, train *DataLoader[B], epoch, epochs int) (float32, error) {
	t.model.SetTraining(true)
	t.loss.SetTraining(true)
	defer t.model.SetTraining(false)

	var bar *progressbar.ProgressBar
	if t.progress {
		bar = progressbar.NewOptions(train.NumBatches(),
			progressbar.OptionSetDescription(fmt.Sprintf("epoch %d/%d", epoch, epochs)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish())
	}

	var sum float64
	var count int
	for _, batch := range train.Batches() {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("training interrupted: %w", err)
		}

		out := t.model.Forward(batch.X)
		lossVal := t.loss.Forward(out, batch.Y)
		t.model.Backward(t.loss.Backward())
		t.optimizer.Step()
		t.optimizer.ZeroGrad()
		t.model.Reset()

		sum += float64(lossVal.Item())
		count++
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if count == 0 {
		return 0, fmt.Errorf("training loader produced no batches")
	}
	return float32(sum / float64(count)), nil
}

// Evaluate runs the model and loss in inference mode over val and
// returns the mean loss plus each configured metric's score. No backward
// intermediates are retained; both stay in inference mode afterwards.
func (t *Trainer[B]) Evaluate(val *DataLoader[B]) (float32, map[string]float32) {
	t.model.SetTraining(false)
	t.loss.SetTraining(false)

	var lossSum float64
	var count int
	sums := make(map[string]float64, len(t.metrics))
	for _, batch := range val.Batches() {
		out := t.model.Forward(batch.X)
		lossSum += float64(t.loss.Forward(out, batch.Y).Item())
		for _, m := range t.metrics {
			sums[m.Label()] += float64(m.Compute(out, batch.Y))
		}
		count++
	}

	scores := make(map[string]float32, len(t.metrics))
	if count == 0 {
		return 0, scores
	}
	for name, s := range sums {
		scores[name] = float32(s / float64(count))
	}
	return float32(lossSum / float64(count)), scores
}

func (t *Trainer[B]) record(key string, value float32) {
	t.history[key] = append(t.history[key], value)
}
