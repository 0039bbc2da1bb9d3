package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Linear applies the affine transform y = x @ W + b.
//
// The weight has shape (in, out) and the optional bias (out,). Inputs of
// rank above two are treated as batches of vectors: every leading
// dimension is flattened for the matmul and restored on the output.
type Linear[B tensor.Backend] struct {
	Core[B]

	weight *Parameter[B]
	bias   *Parameter[B] // nil when constructed without bias

	inFeatures  int
	outFeatures int
}

// NewLinear creates a linear module with fan-in uniform initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, withBias bool, b B) *Linear[B] {
	l := &Linear[B]{
		Core:        NewCore[B]("linear"),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
	}
	l.weight = NewParameter("weight", uniformFanIn[B](tensor.Shape{inFeatures, outFeatures}, inFeatures, b))
	l.Register(l.weight)
	if withBias {
		l.bias = NewParameter("bias", uniformFanIn[B](tensor.Shape{outFeatures}, inFeatures, b))
		l.Register(l.bias)
	}
	return l
}

// InFeatures returns the expected size of the input's last dimension.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the size of the output's last dimension.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }

// HasBias reports whether the module carries a bias parameter.
func (l *Linear[B]) HasBias() bool { return l.bias != nil }

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// Forward computes x @ W + b.
func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	l.CheckDevice(x)
	inShape := x.Shape()
	if len(inShape) < 2 {
		panic(fmt.Sprintf("%s: input must have at least 2 dimensions, got shape %v", l.Label(), inShape))
	}
	if inShape[len(inShape)-1] != l.inFeatures {
		panic(fmt.Sprintf("%s: input has %d features, expected %d", l.Label(), inShape[len(inShape)-1], l.inFeatures))
	}

	// Collapse leading dims so the kernel only ever sees 2D.
	rows := inShape.NumElements() / l.inFeatures
	x2 := x.Reshape(rows, l.inFeatures)

	y2 := x2.MatMul(l.weight.Tensor())
	if l.bias != nil {
		y2 = y2.Add(l.bias.Tensor())
	}

	outShape := append(inShape[:len(inShape)-1].Clone(), l.outFeatures)
	y := y2.Reshape(outShape...)

	if l.Training() {
		l.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			dy2 := dy.Reshape(rows, l.outFeatures)
			l.weight.AccumulateGrad(x2.T().MatMul(dy2))
			if l.bias != nil {
				l.bias.AccumulateGrad(dy2.SumAxes([]int{0}, false))
			}
			dx2 := dy2.MatMul(l.weight.Tensor().T())
			return dx2.Reshape(inShape...)
		})
	} else {
		l.Discard()
	}
	l.RetainOutput(y)
	return y
}
