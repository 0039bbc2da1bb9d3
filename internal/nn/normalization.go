package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Defaults for the normalization layers. Constructors treat zero eps or
// momentum as a request for these.
const (
	DefaultEps      = 1e-5
	DefaultMomentum = 0.1
)

// batchNorm holds the state shared by the 1D and 2D batch normalization
// modules: learned scale and shift plus running statistics buffers that
// only the owning forward pass updates.
type batchNorm[B tensor.Backend] struct {
	Core[B]

	gamma *Parameter[B]
	beta  *Parameter[B]
	rmean *Buffer[B]
	rvar  *Buffer[B]

	channels int
	eps      float64
	momentum float64
}

func newBatchNorm[B tensor.Backend](label string, channels int, eps, momentum float64, b B) batchNorm[B] {
	if eps == 0 {
		eps = DefaultEps
	}
	if momentum == 0 {
		momentum = DefaultMomentum
	}
	m := batchNorm[B]{
		Core:     NewCore[B](label),
		channels: channels,
		eps:      eps,
		momentum: momentum,
	}
	m.gamma = NewParameter("gamma", tensor.Ones[float32](tensor.Shape{channels}, b))
	m.beta = NewParameter("beta", tensor.Zeros[float32](tensor.Shape{channels}, b))
	m.rmean = NewBuffer("rmean", tensor.Zeros[float32](tensor.Shape{channels}, b))
	m.rvar = NewBuffer("rvar", tensor.Ones[float32](tensor.Shape{channels}, b))
	m.Register(m.gamma, m.beta)
	m.RegisterBuffer(m.rmean, m.rvar)
	return m
}

// Channels returns the normalized channel count.
func (m *batchNorm[B]) Channels() int { return m.channels }

// Eps returns the variance stabilizer.
func (m *batchNorm[B]) Eps() float64 { return m.eps }

// Momentum returns the running statistics update weight.
func (m *batchNorm[B]) Momentum() float64 { return m.momentum }

// RunningMean returns the running mean buffer.
func (m *batchNorm[B]) RunningMean() *Buffer[B] { return m.rmean }

// RunningVar returns the running variance buffer.
func (m *batchNorm[B]) RunningVar() *Buffer[B] { return m.rvar }

// forward normalizes over the given axes. paramShape is the broadcast
// shape of the per-channel vectors against the input, e.g. (C, 1, 1)
// for 4D input.
//
// Training mode normalizes with batch statistics and folds them into the
// running buffers; inference mode normalizes with the running buffers
// and never touches them.
func (m *batchNorm[B]) forward(x *tensor.Tensor[float32, B], axes []int, paramShape tensor.Shape) *tensor.Tensor[float32, B] {
	gamma := m.gamma.Tensor().Reshape(paramShape...)
	beta := m.beta.Tensor().Reshape(paramShape...)

	var xhat, inv *tensor.Tensor[float32, B]
	if m.Training() {
		mean := x.MeanAxes(axes, true)
		centered := x.Sub(mean)
		variance := centered.Mul(centered).MeanAxes(axes, true)

		inv = variance.AddScalar(m.eps).Rsqrt()
		xhat = centered.Mul(inv)

		// Running stats use the unbiased variance estimate.
		n := 1
		for _, a := range axes {
			n *= x.Shape()[a]
		}
		unbiased := variance
		if n > 1 {
			unbiased = variance.MulScalar(float64(n) / float64(n-1))
		}
		m.rmean.Update(m.rmean.Tensor().MulScalar(1 - m.momentum).
			Add(mean.Reshape(m.channels).MulScalar(m.momentum)))
		m.rvar.Update(m.rvar.Tensor().MulScalar(1 - m.momentum).
			Add(unbiased.Reshape(m.channels).MulScalar(m.momentum)))
	} else {
		rmean := m.rmean.Tensor().Reshape(paramShape...)
		rvar := m.rvar.Tensor().Reshape(paramShape...)
		inv = rvar.AddScalar(m.eps).Rsqrt()
		xhat = x.Sub(rmean).Mul(inv)
	}

	y := gamma.Mul(xhat).Add(beta)

	if m.Training() {
		n := 1
		for _, a := range axes {
			n *= x.Shape()[a]
		}
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			m.gamma.AccumulateGrad(dy.Mul(xhat).SumAxes(axes, false))
			m.beta.AccumulateGrad(dy.SumAxes(axes, false))

			// dx = gamma*inv/n * (n*dy - sum(dy) - xhat*sum(dy*xhat))
			sumDy := dy.SumAxes(axes, true)
			sumDyXhat := dy.Mul(xhat).SumAxes(axes, true)
			inner := dy.MulScalar(float64(n)).Sub(sumDy).Sub(xhat.Mul(sumDyXhat))
			return gamma.Mul(inv).MulScalar(1 / float64(n)).Mul(inner)
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}

// BatchNorm1D normalizes (N, C) or (N, C, L) inputs per channel over the
// batch (and length) dimensions.
type BatchNorm1D[B tensor.Backend] struct {
	batchNorm[B]
}

// NewBatchNorm1D creates a 1D batch normalization module. Zero eps or
// momentum select the package defaults.
func NewBatchNorm1D[B tensor.Backend](channels int, eps, momentum float64, b B) *BatchNorm1D[B] {
	return &BatchNorm1D[B]{batchNorm: newBatchNorm("batchnorm1d", channels, eps, momentum, b)}
}

// Forward normalizes x per channel.
func (m *BatchNorm1D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	m.CheckDims(x, 2, 3)
	if x.Shape()[1] != m.channels {
		panic(fmt.Sprintf("%s: input has %d channels, expected %d", m.Label(), x.Shape()[1], m.channels))
	}
	if len(x.Shape()) == 2 {
		return m.forward(x, []int{0}, tensor.Shape{m.channels})
	}
	return m.forward(x, []int{0, 2}, tensor.Shape{m.channels, 1})
}

// BatchNorm2D normalizes (N, C, H, W) inputs per channel over the batch
// and spatial dimensions.
type BatchNorm2D[B tensor.Backend] struct {
	batchNorm[B]
}

// NewBatchNorm2D creates a 2D batch normalization module. Zero eps or
// momentum select the package defaults.
func NewBatchNorm2D[B tensor.Backend](channels int, eps, momentum float64, b B) *BatchNorm2D[B] {
	return &BatchNorm2D[B]{batchNorm: newBatchNorm("batchnorm2d", channels, eps, momentum, b)}
}

// Forward normalizes x per channel.
func (m *BatchNorm2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	m.CheckDims(x, 4)
	if x.Shape()[1] != m.channels {
		panic(fmt.Sprintf("%s: input has %d channels, expected %d", m.Label(), x.Shape()[1], m.channels))
	}
	return m.forward(x, []int{0, 2, 3}, tensor.Shape{m.channels, 1, 1})
}

// LayerNorm normalizes each sample over its trailing dimensions, with no
// dependence on the batch and therefore no running statistics.
type LayerNorm[B tensor.Backend] struct {
	Core[B]

	gamma *Parameter[B]
	beta  *Parameter[B]

	normalizedShape tensor.Shape
	eps             float64
}

// NewLayerNorm creates a layer normalization module over the trailing
// normalizedShape dimensions. Zero eps selects the package default.
func NewLayerNorm[B tensor.Backend](normalizedShape tensor.Shape, eps float64, b B) *LayerNorm[B] {
	if eps == 0 {
		eps = DefaultEps
	}
	m := &LayerNorm[B]{
		Core:            NewCore[B]("layernorm"),
		normalizedShape: normalizedShape.Clone(),
		eps:             eps,
	}
	m.gamma = NewParameter("gamma", tensor.Ones[float32](normalizedShape, b))
	m.beta = NewParameter("beta", tensor.Zeros[float32](normalizedShape, b))
	m.Register(m.gamma, m.beta)
	return m
}

// NormalizedShape returns the trailing shape being normalized.
func (m *LayerNorm[B]) NormalizedShape() tensor.Shape { return m.normalizedShape.Clone() }

// Eps returns the variance stabilizer.
func (m *LayerNorm[B]) Eps() float64 { return m.eps }

// Forward normalizes each sample to zero mean and unit variance over the
// trailing dimensions, then applies the learned scale and shift.
func (m *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	inShape := x.Shape()
	lead := len(inShape) - len(m.normalizedShape)
	if lead < 1 || !tensor.Shape(inShape[lead:]).Equal(m.normalizedShape) {
		panic(fmt.Sprintf("%s: input shape %v does not end with %v", m.Label(), inShape, m.normalizedShape))
	}

	axes := make([]int, len(m.normalizedShape))
	for i := range axes {
		axes[i] = lead + i
	}
	n := m.normalizedShape.NumElements()

	mean := x.MeanAxes(axes, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanAxes(axes, true)
	inv := variance.AddScalar(m.eps).Rsqrt()
	xhat := centered.Mul(inv)

	y := m.gamma.Tensor().Mul(xhat).Add(m.beta.Tensor())

	if m.Training() {
		batchAxes := make([]int, lead)
		for i := range batchAxes {
			batchAxes[i] = i
		}
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			m.gamma.AccumulateGrad(dy.Mul(xhat).SumAxes(batchAxes, false))
			m.beta.AccumulateGrad(dy.SumAxes(batchAxes, false))

			g := dy.Mul(m.gamma.Tensor())
			sumG := g.SumAxes(axes, true)
			sumGXhat := g.Mul(xhat).SumAxes(axes, true)
			inner := g.MulScalar(float64(n)).Sub(sumG).Sub(xhat.Mul(sumGXhat))
			return inv.MulScalar(1 / float64(n)).Mul(inner)
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}
