package cpu

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Reshape returns a view of x under a new shape. No data is copied;
// tensors are immutable once produced, so sharing storage is safe.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, err := x.WithView(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return out
}

// Transpose permutes the dimensions of x. With no axes the dimension
// order is reversed (standard transpose for 2D).
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes permutation %v for shape %v", axes, shape))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	out := cpu.mustRaw("transpose", outShape, x.DType())

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	n := x.NumElements()

	copyElems := func(get func(int) float64, set func(int, float64)) {
		for i := 0; i < n; i++ {
			src := 0
			rem := i
			for d := 0; d < ndim; d++ {
				idx := rem / outStrides[d]
				rem %= outStrides[d]
				src += idx * inStrides[axes[d]]
			}
			set(i, get(src))
		}
	}

	switch x.DType() {
	case tensor.Float32:
		in, res := x.AsFloat32(), out.AsFloat32()
		copyElems(func(i int) float64 { return float64(in[i]) }, func(i int, v float64) { res[i] = float32(v) })
	case tensor.Float64:
		in, res := x.AsFloat64(), out.AsFloat64()
		copyElems(func(i int) float64 { return in[i] }, func(i int, v float64) { res[i] = v })
	case tensor.Int32:
		in, res := x.AsInt32(), out.AsInt32()
		copyElems(func(i int) float64 { return float64(in[i]) }, func(i int, v float64) { res[i] = int32(v) })
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", x.DType()))
	}
	return out
}

// Cast converts x to a different element type.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}
	out := cpu.mustRaw("cast", x.Shape(), dtype)

	n := x.NumElements()
	set := func(i int, v float64) {
		switch dtype {
		case tensor.Float32:
			out.AsFloat32()[i] = float32(v)
		case tensor.Float64:
			out.AsFloat64()[i] = v
		case tensor.Int32:
			out.AsInt32()[i] = int32(v)
		}
	}
	for i := 0; i < n; i++ {
		set(i, x.Float64At(i))
	}
	return out
}
