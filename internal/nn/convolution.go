package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Convolution2D applies a 2D cross-correlation over (N, C, H, W) inputs.
//
// The kernel parameter has shape (outChannels, inChannels, kernelSize,
// kernelSize); the optional bias (outChannels,) is broadcast over the
// spatial dimensions.
type Convolution2D[B tensor.Backend] struct {
	Core[B]

	weight *Parameter[B]
	bias   *Parameter[B] // nil when constructed without bias

	inChannels  int
	outChannels int
	kernelSize  int
	padding     int
	stride      int
}

// NewConvolution2D creates a convolution module with fan-in uniform
// initialization. Fan-in is inChannels * kernelSize^2.
func NewConvolution2D[B tensor.Backend](inChannels, outChannels, kernelSize, padding, stride int, withBias bool, b B) *Convolution2D[B] {
	if kernelSize < 1 || stride < 1 || padding < 0 {
		panic(fmt.Sprintf("convolution2d: invalid geometry kernel=%d stride=%d padding=%d", kernelSize, stride, padding))
	}
	c := &Convolution2D[B]{
		Core:        NewCore[B]("convolution2d"),
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		padding:     padding,
		stride:      stride,
	}
	fanIn := inChannels * kernelSize * kernelSize
	c.weight = NewParameter("weight",
		uniformFanIn[B](tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, fanIn, b))
	c.Register(c.weight)
	if withBias {
		c.bias = NewParameter("bias", uniformFanIn[B](tensor.Shape{outChannels}, fanIn, b))
		c.Register(c.bias)
	}
	return c
}

// InChannels returns the expected input channel count.
func (c *Convolution2D[B]) InChannels() int { return c.inChannels }

// OutChannels returns the output channel count.
func (c *Convolution2D[B]) OutChannels() int { return c.outChannels }

// KernelSize returns the square kernel side length.
func (c *Convolution2D[B]) KernelSize() int { return c.kernelSize }

// Padding returns the zero padding applied to each spatial border.
func (c *Convolution2D[B]) Padding() int { return c.padding }

// Stride returns the window step.
func (c *Convolution2D[B]) Stride() int { return c.stride }

// HasBias reports whether the module carries a bias parameter.
func (c *Convolution2D[B]) HasBias() bool { return c.bias != nil }

// Forward computes the cross-correlation of x with the kernel.
func (c *Convolution2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	c.CheckDevice(x)
	c.CheckDims(x, 4)
	inShape := x.Shape()
	if inShape[1] != c.inChannels {
		panic(fmt.Sprintf("%s: input has %d channels, expected %d", c.Label(), inShape[1], c.inChannels))
	}

	b := x.Backend()
	raw := b.Conv2D(x.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding)
	y := tensor.New[float32](raw, b)
	if c.bias != nil {
		y = y.Add(c.bias.Tensor().Reshape(c.outChannels, 1, 1))
	}

	if c.Training() {
		xSaved := x
		c.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			kernelShape := c.weight.Tensor().Shape()
			dw := b.Conv2DKernelGrad(dy.Raw(), xSaved.Raw(), kernelShape, c.stride, c.padding)
			c.weight.AccumulateGrad(tensor.New[float32](dw, b))
			if c.bias != nil {
				c.bias.AccumulateGrad(dy.SumAxes([]int{0, 2, 3}, false))
			}
			dx := b.Conv2DInputGrad(dy.Raw(), c.weight.Tensor().Raw(), inShape, c.stride, c.padding)
			return tensor.New[float32](dx, b)
		})
	} else {
		c.Discard()
	}
	c.RetainOutput(y)
	return y
}
