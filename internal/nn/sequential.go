package nn

import (
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Sequential chains modules so that each child's output feeds the next
// child's input. Its backward continuation replays the children's
// Backward methods in exact reverse order, which is the composition rule
// that makes per-module continuations compose into a full network
// gradient.
type Sequential[B tensor.Backend] struct {
	Core[B]

	modules []Module[B]
}

// NewSequential creates a container over the given modules, applied in
// order.
func NewSequential[B tensor.Backend](label string, modules ...Module[B]) *Sequential[B] {
	s := &Sequential[B]{
		Core:    NewCore[B](label),
		modules: modules,
	}
	s.RegisterChild(modules...)
	return s
}

// Modules returns the children in application order.
func (s *Sequential[B]) Modules() []Module[B] { return s.modules }

// Append adds a module to the end of the chain. The new child inherits
// the container's current mode flags and device.
func (s *Sequential[B]) Append(m Module[B]) {
	m.SetTraining(s.Training())
	m.SetTrainable(s.Trainable())
	m.SetRetainValues(s.RetainValues())
	m.ToDevice(s.Device())
	s.modules = append(s.modules, m)
	s.RegisterChild(m)
}

// Forward threads x through every child in order.
func (s *Sequential[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	y := x
	for _, m := range s.modules {
		y = m.Forward(y)
	}

	if s.Training() {
		s.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			for i := len(s.modules) - 1; i >= 0; i-- {
				dy = s.modules[i].Backward(dy)
			}
			return dy
		})
	} else {
		s.Discard()
	}
	s.RetainOutput(y)
	return y
}
