package nn

import (
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Element-wise activation modules. Each one keeps only its own output
// alive for backward, since all three derivatives are expressible in
// terms of y.

// ReLU applies max(0, x).
type ReLU[B tensor.Backend] struct {
	Core[B]
}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{Core: NewCore[B]("relu")}
}

// Forward applies the rectifier.
func (m *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	y := x.ReLU()
	if m.Training() {
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			zero := tensor.Zeros[float32](y.Shape(), y.Backend())
			return dy.Mul(y.Greater(zero))
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}

// Sigmoid applies the logistic function 1/(1+exp(-x)).
type Sigmoid[B tensor.Backend] struct {
	Core[B]
}

// NewSigmoid creates a sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{Core: NewCore[B]("sigmoid")}
}

// Forward applies the logistic function.
func (m *Sigmoid[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	y := x.Sigmoid()
	if m.Training() {
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			// dx = dy * y * (1 - y)
			return dy.Mul(y).Mul(y.MulScalar(-1).AddScalar(1))
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct {
	Core[B]
}

// NewTanh creates a tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{Core: NewCore[B]("tanh")}
}

// Forward applies the hyperbolic tangent.
func (m *Tanh[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	y := x.Tanh()
	if m.Training() {
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			// dx = dy * (1 - y^2)
			return dy.Mul(y.Mul(y).MulScalar(-1).AddScalar(1))
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}
