// Package optim implements the optimization algorithms that consume the
// gradient slots written by the differentiation engine.
//
// Optimizers read each parameter's accumulated gradient and update the
// parameter value in place; this is the one sanctioned external mutation
// of module-owned state. Parameters whose gradient slot is empty, or
// whose requires-grad flag is off, are skipped.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
//	for epoch := range epochs {
//	    out := model.Forward(x)
//	    loss := lossFn.Forward(out, y)
//	    model.Backward(lossFn.Backward())
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one gradient update to every eligible parameter.
	Step()

	// ZeroGrad empties every parameter's gradient slot. Call between
	// iterations to keep passes independent.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR replaces the learning rate, for external schedules.
	SetLR(lr float32)
}

// eligible reports whether a parameter should be updated this step.
func eligible[B tensor.Backend](p *nn.Parameter[B]) bool {
	return p.RequiresGrad() && p.Grad() != nil
}

// zeroGrads empties the gradient slots of all given parameters.
func zeroGrads[B tensor.Backend](params []*nn.Parameter[B]) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
