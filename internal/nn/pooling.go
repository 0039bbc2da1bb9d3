package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// maxPoolOp is the stateless operation behind MaxPooling2D. The forward
// kernel reports the flat input index of each window maximum; backward
// routes the output gradient back to exactly those positions.
type maxPoolOp[B tensor.Backend] struct{}

func (maxPoolOp[B]) Forward(cache Cache, x *tensor.Tensor[float32, B], kernelSize, stride int) *tensor.Tensor[float32, B] {
	b := x.Backend()
	outRaw, indices := b.MaxPool2D(x.Raw(), kernelSize, stride)
	cache.Put("indices", indices)
	cache.Put("inShape", x.Shape())
	return tensor.New[float32](outRaw, b)
}

func (maxPoolOp[B]) Backward(cache Cache, dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	indices := cacheGet[*tensor.RawTensor](cache, "indices")
	inShape := cacheGet[tensor.Shape](cache, "inShape")

	b := dy.Backend()
	return tensor.New[float32](b.MaxPool2DBackward(dy.Raw(), indices, inShape), b)
}

// MaxPooling2D takes the maximum over non-overlapping or strided square
// windows of (N, C, H, W) inputs.
type MaxPooling2D[B tensor.Backend] struct {
	Core[B]

	op maxPoolOp[B]

	kernelSize int
	stride     int
}

// NewMaxPooling2D creates a max pooling module. A stride of 0 defaults
// to the kernel size (non-overlapping windows).
func NewMaxPooling2D[B tensor.Backend](kernelSize, stride int) *MaxPooling2D[B] {
	if kernelSize < 1 {
		panic(fmt.Sprintf("maxpooling2d: invalid kernel size %d", kernelSize))
	}
	if stride == 0 {
		stride = kernelSize
	}
	return &MaxPooling2D[B]{
		Core:       NewCore[B]("maxpooling2d"),
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// KernelSize returns the square window side length.
func (m *MaxPooling2D[B]) KernelSize() int { return m.kernelSize }

// Stride returns the window step.
func (m *MaxPooling2D[B]) Stride() int { return m.stride }

// Forward pools each window to its maximum.
func (m *MaxPooling2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.CheckDevice(x)
	m.CheckDims(x, 4)

	cache := m.OpCache()
	y := m.op.Forward(cache, x, m.kernelSize, m.stride)

	if m.Training() {
		m.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			return m.op.Backward(cache, dy)
		})
	} else {
		m.Discard()
	}
	m.RetainOutput(y)
	return y
}
