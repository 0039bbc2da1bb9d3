package cpu

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/parallel"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Conv2D performs 2D cross-correlation via im2col + matmul.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
// with H_out = (H + 2*padding - K_h)/stride + 1 (same for W).
//
// Im2col converts the convolution into one large matrix multiplication,
// which is cache-friendly and reuses the matmul kernel.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	checkBinary("conv2d", input, kernel)
	if input.DType() != tensor.Float32 {
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kShape)))
	}

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kH, kW := kShape[0], kShape[2], kShape[3]
	if cIn != kShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kShape[1]))
	}

	hOut := (h+2*padding-kH)/stride + 1
	wOut := (w+2*padding-kW)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output size %dx%d (check stride/padding)", hOut, wOut))
	}

	out := cpu.mustRaw("conv2d", tensor.Shape{n, cOut, hOut, wOut}, tensor.Float32)
	inData := input.AsFloat32()
	kData := kernel.AsFloat32()
	outData := out.AsFloat32()

	// im2col: [N*H_out*W_out, C_in*K_h*K_w]
	colWidth := cIn * kH * kW
	col := make([]float32, n*hOut*wOut*colWidth)
	im2col(col, inData, n, cIn, h, w, kH, kW, hOut, wOut, stride, padding)

	// out[no, co] = kernel[co, :] . col[no, :], parallel over patches.
	patches := n * hOut * wOut
	parallel.For(patches, func(p int) {
		patch := col[p*colWidth : (p+1)*colWidth]
		batch := p / (hOut * wOut)
		pix := p % (hOut * wOut)
		for co := 0; co < cOut; co++ {
			kRow := kData[co*colWidth : (co+1)*colWidth]
			var sum float32
			for i, kv := range kRow {
				sum += kv * patch[i]
			}
			outData[(batch*cOut+co)*hOut*wOut+pix] = sum
		}
	}, cpu.parallel)

	return out
}

// im2col lays every receptive field out as one contiguous row.
// Out-of-bounds (padding) positions contribute zeros.
func im2col(col, in []float32, n, cIn, h, w, kH, kW, hOut, wOut, stride, padding int) {
	colWidth := cIn * kH * kW
	for batch := 0; batch < n; batch++ {
		for ho := 0; ho < hOut; ho++ {
			for wo := 0; wo < wOut; wo++ {
				row := col[((batch*hOut+ho)*wOut+wo)*colWidth:][:colWidth]
				i := 0
				for ci := 0; ci < cIn; ci++ {
					for kh := 0; kh < kH; kh++ {
						hIn := ho*stride - padding + kh
						for kw := 0; kw < kW; kw++ {
							wIn := wo*stride - padding + kw
							if hIn >= 0 && hIn < h && wIn >= 0 && wIn < w {
								row[i] = in[((batch*cIn+ci)*h+hIn)*w+wIn]
							} else {
								row[i] = 0
							}
							i++
						}
					}
				}
			}
		}
	}
}

// Conv2DInputGrad computes the gradient with respect to the convolution
// input by scattering each output gradient through the kernel (a
// transposed convolution).
func (cpu *CPUBackend) Conv2DInputGrad(outGrad, kernel *tensor.RawTensor, inputShape tensor.Shape, stride, padding int) *tensor.RawTensor {
	checkBinary("conv2d_input_grad", outGrad, kernel)

	gShape, kShape := outGrad.Shape(), kernel.Shape()
	n, cIn, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, kH, kW := kShape[0], kShape[2], kShape[3]
	hOut, wOut := gShape[2], gShape[3]

	out := cpu.mustRaw("conv2d_input_grad", inputShape, tensor.Float32)
	gData := outGrad.AsFloat32()
	kData := kernel.AsFloat32()
	dIn := out.AsFloat32()

	// Parallel over (batch, input channel): each worker owns a disjoint
	// slice of dIn, so the scatter needs no synchronization.
	parallel.ForBatch(n, cIn, func(batch, ci int) {
		plane := dIn[(batch*cIn+ci)*h*w:][:h*w]
		for co := 0; co < cOut; co++ {
			kPlane := kData[(co*cIn+ci)*kH*kW:][:kH*kW]
			gPlane := gData[(batch*cOut+co)*hOut*wOut:][:hOut*wOut]
			for ho := 0; ho < hOut; ho++ {
				for wo := 0; wo < wOut; wo++ {
					g := gPlane[ho*wOut+wo]
					if g == 0 {
						continue
					}
					for kh := 0; kh < kH; kh++ {
						hIn := ho*stride - padding + kh
						if hIn < 0 || hIn >= h {
							continue
						}
						for kw := 0; kw < kW; kw++ {
							wIn := wo*stride - padding + kw
							if wIn < 0 || wIn >= w {
								continue
							}
							plane[hIn*w+wIn] += g * kPlane[kh*kW+kw]
						}
					}
				}
			}
		}
	}, cpu.parallel)

	return out
}

// Conv2DKernelGrad computes the gradient with respect to the kernel by
// correlating the saved forward input with the output gradient.
func (cpu *CPUBackend) Conv2DKernelGrad(outGrad, input *tensor.RawTensor, kernelShape tensor.Shape, stride, padding int) *tensor.RawTensor {
	checkBinary("conv2d_kernel_grad", outGrad, input)

	gShape, inShape := outGrad.Shape(), input.Shape()
	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kH, kW := kernelShape[0], kernelShape[2], kernelShape[3]
	hOut, wOut := gShape[2], gShape[3]

	out := cpu.mustRaw("conv2d_kernel_grad", kernelShape, tensor.Float32)
	gData := outGrad.AsFloat32()
	inData := input.AsFloat32()
	dK := out.AsFloat32()

	// Parallel over (output channel, input channel) kernel planes.
	parallel.ForBatch(cOut, cIn, func(co, ci int) {
		kPlane := dK[(co*cIn+ci)*kH*kW:][:kH*kW]
		for batch := 0; batch < n; batch++ {
			inPlane := inData[(batch*cIn+ci)*h*w:][:h*w]
			gPlane := gData[(batch*cOut+co)*hOut*wOut:][:hOut*wOut]
			for ho := 0; ho < hOut; ho++ {
				for wo := 0; wo < wOut; wo++ {
					g := gPlane[ho*wOut+wo]
					if g == 0 {
						continue
					}
					for kh := 0; kh < kH; kh++ {
						hIn := ho*stride - padding + kh
						if hIn < 0 || hIn >= h {
							continue
						}
						for kw := 0; kw < kW; kw++ {
							wIn := wo*stride - padding + kw
							if wIn < 0 || wIn >= w {
								continue
							}
							kPlane[kh*kW+kw] += g * inPlane[hIn*w+wIn]
						}
					}
				}
			}
		}
	}, cpu.parallel)

	return out
}
