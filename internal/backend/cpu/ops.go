package cpu

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// Greater produces a 0/1 mask where a > b, with broadcasting.
func (cpu *CPUBackend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("greater", a, b,
		func(x, y float32) float32 { return mask(x > y) },
		func(x, y float64) float64 { return float64(mask(x > y)) })
}

// Equal produces a 0/1 mask where a == b, with broadcasting.
func (cpu *CPUBackend) Equal(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("equal", a, b,
		func(x, y float32) float32 { return mask(x == y) },
		func(x, y float64) float64 { return float64(mask(x == y)) })
}

func mask(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// binaryOp dispatches a broadcast binary kernel by dtype.
func (cpu *CPUBackend) binaryOp(
	op string, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	checkBinary(op, a, b)

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	out := cpu.mustRaw(op, outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		broadcastBinary(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, f32)
	case tensor.Float64:
		broadcastBinary(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, f64)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return out
}

// broadcastBinary computes out[i] = f(a[bi], b[ci]) where bi/ci follow
// NumPy broadcasting. Equal shapes take a flat fast path.
func broadcastBinary[T float32 | float64](
	out, a, b []T,
	aShape, bShape, outShape tensor.Shape,
	f func(T, T) T,
) {
	if aShape.Equal(bShape) {
		for i := range out {
			out[i] = f(a[i], b[i])
		}
		return
	}

	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	for i := range out {
		ai, bi := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			ai += idx * aStrides[d]
			bi += idx * bStrides[d]
		}
		out[i] = f(a[ai], b[bi])
	}
}

// broadcastStrides returns per-output-axis strides into the operand,
// with stride 0 on broadcast (size-1 or missing) axes.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	opStrides := shape.ComputeStrides()
	offset := len(outShape) - len(shape)
	for d := range outShape {
		opDim := d - offset
		if opDim < 0 || shape[opDim] == 1 {
			strides[d] = 0
		} else {
			strides[d] = opStrides[opDim]
		}
	}
	return strides
}
