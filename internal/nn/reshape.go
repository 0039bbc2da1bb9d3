package nn

import (
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Reshape rearranges each sample to a fixed per-sample shape, keeping
// the batch dimension. Backward restores the input shape.
type Reshape[B tensor.Backend] struct {
	Core[B]

	sampleShape tensor.Shape
}

// NewReshape creates a reshape module. sampleShape excludes the batch
// dimension.
func NewReshape[B tensor.Backend](sampleShape ...int) *Reshape[B] {
	return &Reshape[B]{
		Core:        NewCore[B]("reshape"),
		sampleShape: tensor.Shape(sampleShape),
	}
}

// SampleShape returns the configured per-sample output shape.
func (m *Reshape[B]) SampleShape() tensor.Shape { return m.sampleShape.Clone() }

// Forward reshapes (N, ...) to (N, sampleShape...).
func (m *Reshape[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	inShape := x.Shape()
	outShape := append(tensor.Shape{inShape[0]}, m.sampleShape...)
	y := x.Reshape(outShape...)

	if m.Training() {
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			return dy.Reshape(inShape...)
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}

// Flatten collapses all non-batch dimensions into one.
type Flatten[B tensor.Backend] struct {
	Core[B]
}

// NewFlatten creates a flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{Core: NewCore[B]("flatten")}
}

// Forward reshapes (N, ...) to (N, prod(...)).
func (m *Flatten[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	inShape := x.Shape()
	batch := inShape[0]
	y := x.Reshape(batch, inShape.NumElements()/batch)

	if m.Training() {
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			return dy.Reshape(inShape...)
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}
