package cpu

import (
	"fmt"
	"math"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// SumAxes sums over the given axes. axes == nil reduces every axis; the
// result is then a single-element tensor of shape {1} (or the reduced
// shape with size-1 dims when keepDims is set).
func (cpu *CPUBackend) SumAxes(x *tensor.RawTensor, axes []int, keepDims bool) *tensor.RawTensor {
	return cpu.reduce("sum", x, axes, keepDims, false)
}

// MeanAxes averages over the given axes.
func (cpu *CPUBackend) MeanAxes(x *tensor.RawTensor, axes []int, keepDims bool) *tensor.RawTensor {
	return cpu.reduce("mean", x, axes, keepDims, true)
}

func (cpu *CPUBackend) reduce(op string, x *tensor.RawTensor, axes []int, keepDims, mean bool) *tensor.RawTensor {
	shape := x.Shape()

	reduced := make([]bool, len(shape))
	if axes == nil {
		for i := range reduced {
			reduced[i] = true
		}
	} else {
		for _, ax := range axes {
			if ax < 0 {
				ax += len(shape)
			}
			if ax < 0 || ax >= len(shape) {
				panic(fmt.Sprintf("%s: axis %v out of range for shape %v", op, axes, shape))
			}
			reduced[ax] = true
		}
	}

	outShape := tensor.Shape{}
	count := 1
	for d, isReduced := range reduced {
		if isReduced {
			count *= shape[d]
			if keepDims {
				outShape = append(outShape, 1)
			}
		} else {
			outShape = append(outShape, shape[d])
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	out := cpu.mustRaw(op, outShape, x.DType())

	// Per-output-axis strides mapping every input element to its
	// accumulator slot (stride 0 on reduced axes).
	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	accStrides := make([]int, len(shape))
	outDim := 0
	for d, isReduced := range reduced {
		if isReduced {
			if keepDims {
				outDim++
			}
			continue
		}
		accStrides[d] = outStrides[outDim]
		outDim++
	}

	accumulate := func(get func(i int) float64, set func(i int, v float64), n int) {
		for i := 0; i < n; i++ {
			acc := 0
			rem := i
			for d := range shape {
				idx := rem / inStrides[d]
				rem %= inStrides[d]
				acc += idx * accStrides[d]
			}
			set(acc, get(i))
		}
	}

	switch x.DType() {
	case tensor.Float32:
		in, res := x.AsFloat32(), out.AsFloat32()
		accumulate(
			func(i int) float64 { return float64(in[i]) },
			func(i int, v float64) { res[i] += float32(v) },
			len(in))
		if mean {
			for i := range res {
				res[i] /= float32(count)
			}
		}
	case tensor.Float64:
		in, res := x.AsFloat64(), out.AsFloat64()
		accumulate(
			func(i int) float64 { return in[i] },
			func(i int, v float64) { res[i] += v },
			len(in))
		if mean {
			for i := range res {
				res[i] /= float64(count)
			}
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return out
}

// Argmax returns int32 indices of the maximum along dim.
// Ties resolve to the lowest index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("argmax: dimension %d out of range for shape %v", dim, shape))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	outShape := tensor.Shape{}
	for d, size := range shape {
		if d != dim {
			outShape = append(outShape, size)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	out := cpu.mustRaw("argmax", outShape, tensor.Int32)
	in, res := x.AsFloat32(), out.AsInt32()

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	rows := x.NumElements() / dimSize

	for row := 0; row < rows; row++ {
		outer := row / dimStride
		inner := row % dimStride
		base := outer*dimStride*dimSize + inner

		best := float32(math.Inf(-1))
		bestIdx := int32(0)
		for j := 0; j < dimSize; j++ {
			if v := in[base+j*dimStride]; v > best {
				best = v
				bestIdx = int32(j)
			}
		}
		res[row] = bestIdx
	}
	return out
}
