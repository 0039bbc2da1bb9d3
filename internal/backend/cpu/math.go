package cpu

import (
	"fmt"
	"math"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("add_scalar", x, func(v float64) float64 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("mul_scalar", x, func(v float64) float64 { return v * scalar })
}

// Exp computes the element-wise exponential.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("log", x, math.Log)
}

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sqrt", x, math.Sqrt)
}

// Rsqrt computes the element-wise reciprocal square root.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", x, func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// Clip limits every element to [lo, hi].
func (cpu *CPUBackend) Clip(x *tensor.RawTensor, lo, hi float64) *tensor.RawTensor {
	return cpu.unaryOp("clip", x, func(v float64) float64 {
		return math.Min(math.Max(v, lo), hi)
	})
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float64) float64 { return math.Max(v, 0) })
}

// Sigmoid computes 1/(1+exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sigmoid", x, func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
}

// Tanh computes the element-wise hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("tanh", x, math.Tanh)
}

// unaryOp applies f to every element, preserving shape and dtype.
func (cpu *CPUBackend) unaryOp(op string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	out := cpu.mustRaw(op, x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		in, res := x.AsFloat32(), out.AsFloat32()
		for i, v := range in {
			res[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		in, res := x.AsFloat64(), out.AsFloat64()
		for i, v := range in {
			res[i] = f(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return out
}

// Softmax computes a numerically stable softmax along dim.
// Negative dims index from the end (-1 is the last dimension).
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: dimension %d out of range for shape %v", dim, shape))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	out := cpu.mustRaw("softmax", shape, x.DType())
	in, res := x.AsFloat32(), out.AsFloat32()

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	rows := x.NumElements() / dimSize

	for row := 0; row < rows; row++ {
		// Base offset of this softmax row in the flat buffer.
		outer := row / dimStride
		inner := row % dimStride
		base := outer*dimStride*dimSize + inner

		maxVal := float32(math.Inf(-1))
		for j := 0; j < dimSize; j++ {
			if v := in[base+j*dimStride]; v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for j := 0; j < dimSize; j++ {
			e := float32(math.Exp(float64(in[base+j*dimStride] - maxVal)))
			res[base+j*dimStride] = e
			sum += e
		}
		for j := 0; j < dimSize; j++ {
			res[base+j*dimStride] /= sum
		}
	}
	return out
}
