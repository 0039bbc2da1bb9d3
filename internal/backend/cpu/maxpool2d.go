package cpu

import (
	"fmt"
	"math"

	"github.com/ripple-ml/ripple/internal/parallel"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// MaxPool2D performs 2D max pooling and additionally returns the flat
// input index of each window maximum. The indices are exactly what the
// paired backward scatter needs, so they are the operation's cache
// payload.
//
// Input shape:  [N, C, H, W]
// Output shape: [N, C, H_out, W_out] with H_out = (H-kernelSize)/stride + 1.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) (out, indices *tensor.RawTensor) {
	inShape := input.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inShape)))
	}
	if input.DType() != tensor.Float32 {
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s", input.DType()))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d or stride %d", kernelSize, stride))
	}

	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	if kernelSize > h || kernelSize > w {
		panic(fmt.Sprintf("maxpool2d: kernel size %d too large for input %dx%d", kernelSize, h, w))
	}

	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1

	outShape := tensor.Shape{n, c, hOut, wOut}
	out = cpu.mustRaw("maxpool2d", outShape, tensor.Float32)
	indices = cpu.mustRaw("maxpool2d", outShape, tensor.Int32)

	inData := input.AsFloat32()
	outData := out.AsFloat32()
	idxData := indices.AsInt32()

	parallel.ForBatch(n, c, func(batch, ch int) {
		planeOff := (batch*c + ch) * h * w
		outOff := (batch*c + ch) * hOut * wOut
		for ho := 0; ho < hOut; ho++ {
			for wo := 0; wo < wOut; wo++ {
				best := float32(math.Inf(-1))
				bestIdx := 0
				for kh := 0; kh < kernelSize; kh++ {
					for kw := 0; kw < kernelSize; kw++ {
						idx := planeOff + (ho*stride+kh)*w + (wo*stride + kw)
						if v := inData[idx]; v > best {
							best = v
							bestIdx = idx
						}
					}
				}
				outData[outOff+ho*wOut+wo] = best
				idxData[outOff+ho*wOut+wo] = int32(bestIdx)
			}
		}
	}, cpu.parallel)

	return out, indices
}

// MaxPool2DBackward scatters the output gradient back to the positions
// recorded by the forward pass. Overlapping windows accumulate.
func (cpu *CPUBackend) MaxPool2DBackward(outGrad, indices *tensor.RawTensor, inputShape tensor.Shape) *tensor.RawTensor {
	if !outGrad.Shape().Equal(indices.Shape()) {
		panic(fmt.Sprintf("maxpool2d backward: gradient shape %v != indices shape %v", outGrad.Shape(), indices.Shape()))
	}

	out := cpu.mustRaw("maxpool2d backward", inputShape, tensor.Float32)
	gData := outGrad.AsFloat32()
	idxData := indices.AsInt32()
	dIn := out.AsFloat32()

	for i, idx := range idxData {
		dIn[idx] += gData[i]
	}
	return out
}
