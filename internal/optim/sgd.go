package optim

import (
	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * grad
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + grad
//	param = param - lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]][]float32
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // learning rate (default: 0.01)
	Momentum float32 // momentum factor (default: 0, range [0, 1))
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one SGD update to every eligible parameter.
func (s *SGD[B]) Step() {
	for _, p := range s.params {
		if !eligible(p) {
			continue
		}
		value := p.Tensor().Data()
		grad := p.Grad().Data()

		if s.momentum == 0 {
			for i := range value {
				value[i] -= s.lr * grad[i]
			}
			continue
		}

		vel, ok := s.velocities[p]
		if !ok {
			vel = make([]float32, len(value))
			s.velocities[p] = vel
		}
		for i := range value {
			vel[i] = s.momentum*vel[i] + grad[i]
			value[i] -= s.lr * vel[i]
		}
	}
}

// ZeroGrad empties every parameter's gradient slot.
func (s *SGD[B]) ZeroGrad() { zeroGrads(s.params) }

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 { return s.lr }

// SetLR replaces the learning rate.
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }
