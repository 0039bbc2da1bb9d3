package cpu

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Lookup gathers rows of a 2D weight matrix by index.
//
// weight shape:  [V, E]
// indices shape: [...] (int32, each in [0, V))
// output shape:  [..., E]
func (cpu *CPUBackend) Lookup(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("lookup: weight must be 2D [V,E], got %v", wShape))
	}
	if weight.DType() != tensor.Float32 || indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("lookup: expected float32 weight and int32 indices, got %s and %s", weight.DType(), indices.DType()))
	}
	if weight.Device() != indices.Device() {
		panic(fmt.Sprintf("lookup: device mismatch: %s vs %s", weight.Device(), indices.Device()))
	}

	v, e := wShape[0], wShape[1]
	outShape := append(indices.Shape().Clone(), e)
	out := cpu.mustRaw("lookup", outShape, tensor.Float32)

	wData := weight.AsFloat32()
	idxData := indices.AsInt32()
	outData := out.AsFloat32()

	for i, idx := range idxData {
		if idx < 0 || int(idx) >= v {
			panic(fmt.Sprintf("lookup: index %d out of range [0, %d)", idx, v))
		}
		copy(outData[i*e:(i+1)*e], wData[int(idx)*e:(int(idx)+1)*e])
	}
	return out
}

// LookupGrad scatter-adds output gradients back into weight rows.
// Rows selected multiple times accumulate their contributions.
func (cpu *CPUBackend) LookupGrad(outGrad, indices *tensor.RawTensor, weightShape tensor.Shape) *tensor.RawTensor {
	e := weightShape[1]
	if outGrad.NumElements() != indices.NumElements()*e {
		panic(fmt.Sprintf("lookup grad: gradient shape %v does not match %d indices with width %d",
			outGrad.Shape(), indices.NumElements(), e))
	}

	out := cpu.mustRaw("lookup grad", weightShape, tensor.Float32)
	gData := outGrad.AsFloat32()
	idxData := indices.AsInt32()
	dW := out.AsFloat32()

	for i, idx := range idxData {
		row := dW[int(idx)*e : (int(idx)+1)*e]
		g := gData[i*e : (i+1)*e]
		for j, gv := range g {
			row[j] += gv
		}
	}
	return out
}

// OneHot expands int32 class indices into one-hot float32 vectors.
//
// indices shape: [...]
// output shape:  [..., classes]
func (cpu *CPUBackend) OneHot(indices *tensor.RawTensor, classes int) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("one_hot: expected int32 indices, got %s", indices.DType()))
	}
	if classes <= 0 {
		panic(fmt.Sprintf("one_hot: invalid class count %d", classes))
	}

	outShape := append(indices.Shape().Clone(), classes)
	out := cpu.mustRaw("one_hot", outShape, tensor.Float32)

	idxData := indices.AsInt32()
	outData := out.AsFloat32()
	for i, idx := range idxData {
		if idx < 0 || int(idx) >= classes {
			panic(fmt.Sprintf("one_hot: index %d out of range [0, %d)", idx, classes))
		}
		outData[i*classes+int(idx)] = 1
	}
	return out
}
