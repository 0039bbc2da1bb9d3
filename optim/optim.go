// Package optim provides gradient descent optimizers.
//
// Optimizers read the gradients accumulated in parameter slots during
// Backward and update the parameter values in place:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    yPred := model.Forward(x)
//	    lossVal := criterion.Forward(yPred, y)
//	    model.Backward(criterion.Backward())
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	    model.Reset()
//	}
//
// Parameters whose RequiresGrad flag is off, and parameters with an
// empty gradient slot, are skipped by Step.
package optim

import (
	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/optim"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Optimizer is the common optimizer interface.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures SGD. Zero values select the defaults
// (LR 0.01, no momentum).
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over the given parameters.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	return optim.NewSGD(params, config)
}

// Adam is the Adam optimizer with bias correction.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig configures Adam. Zero values select the defaults
// (LR 0.001, betas 0.9/0.999, epsilon 1e-8).
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over the given parameters.
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	})
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	return optim.NewAdam(params, config)
}
