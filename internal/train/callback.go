package train

import (
	"k8s.io/klog/v2"

	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Callback observes training at epoch boundaries.
type Callback[B tensor.Backend] interface {
	// OnEpochEnd runs after the epoch's history entries are recorded.
	OnEpochEnd(t *Trainer[B], epoch int)
}

// EarlyStopping aborts training when a monitored series stops improving,
// and restores the best-seen parameter values on stop.
//
// Improvement means a drop of more than MinDelta below the best value so
// far. After Patience consecutive epochs without improvement, the
// callback calls Trainer.Abort and copies the snapshot taken at the best
// epoch back into the model.
type EarlyStopping[B tensor.Backend] struct {
	// Monitor is the history key to watch (default: "val_loss", falls
	// back to "loss" when absent).
	Monitor string
	// Patience is the number of non-improving epochs tolerated before
	// stopping (default: 3).
	Patience int
	// MinDelta is the minimum drop that counts as improvement.
	MinDelta float32

	best      float32
	bestState map[string]*tensor.RawTensor
	misses    int
	primed    bool
}

// NewEarlyStopping creates the callback with the given patience and the
// default monitor.
func NewEarlyStopping[B tensor.Backend](patience int) *EarlyStopping[B] {
	return &EarlyStopping[B]{Patience: patience}
}

// OnEpochEnd checks the monitored series and stops training when it has
// not improved for Patience epochs.
func (e *EarlyStopping[B]) OnEpochEnd(t *Trainer[B], epoch int) {
	if e.Patience == 0 {
		e.Patience = 3
	}
	value, ok := e.monitoredValue(t)
	if !ok {
		return
	}

	if !e.primed || value < e.best-e.MinDelta {
		e.primed = true
		e.best = value
		e.misses = 0
		e.snapshot(t.Model())
		return
	}

	e.misses++
	if e.misses >= e.Patience {
		klog.V(1).Infof("early stopping at epoch %d: best %s %.6f", epoch, e.monitorKey(t), e.best)
		e.restore(t.Model())
		t.Abort()
	}
}

func (e *EarlyStopping[B]) monitorKey(t *Trainer[B]) string {
	if e.Monitor != "" {
		return e.Monitor
	}
	if len(t.History("val_loss")) > 0 {
		return "val_loss"
	}
	return "loss"
}

func (e *EarlyStopping[B]) monitoredValue(t *Trainer[B]) (float32, bool) {
	series := t.History(e.monitorKey(t))
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// snapshot deep-copies the model state.
func (e *EarlyStopping[B]) snapshot(m nn.Module[B]) {
	state := nn.StateDict(m)
	e.bestState = make(map[string]*tensor.RawTensor, len(state))
	for name, raw := range state {
		e.bestState[name] = raw.Clone()
	}
}

// restore writes the best snapshot back into the model.
func (e *EarlyStopping[B]) restore(m nn.Module[B]) {
	if e.bestState == nil {
		return
	}
	if err := nn.LoadStateDict(m, e.bestState); err != nil {
		klog.Errorf("early stopping: failed to restore best state: %v", err)
	}
}
