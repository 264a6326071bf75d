package cpu

import (
	"fmt"

	"github.com/glint-ml/glint/internal/tensor"
)

// ConvTranspose2D scatters x back through the kernel: the adjoint of
// Conv2D with respect to its input.
//
// Input shape: [N, C_out, H_in, W_in]
// Kernel shape: [C_out, C_in, K_h, K_w] (the forward convolution's kernel)
// Output shape: [N, C_in, outH, outW]
//
// outH and outW are passed explicitly because the transposed output size
// is ambiguous when the forward convolution used stride > 1.
func (cpu *CPUBackend) ConvTranspose2D(x, kernel *tensor.RawTensor, stride, padding, outH, outW int) *tensor.RawTensor {
	xShape := x.Shape()
	kernelShape := kernel.Shape()

	if len(xShape) != 4 {
		panic(fmt.Sprintf("convTranspose2d: input must be 4D [N,C,H,W], got %dD", len(xShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("convTranspose2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if xShape[1] != kernelShape[0] {
		panic(fmt.Sprintf("convTranspose2d: input channels %d != kernel output channels %d", xShape[1], kernelShape[0]))
	}

	N := xShape[0]
	CIn := kernelShape[1]

	output, err := tensor.NewRaw(tensor.Shape{N, CIn, outH, outW}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("convTranspose2d: failed to create output tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		convTranspose2dFloat32(output, x, kernel, stride, padding, outH, outW)
	case tensor.Float64:
		convTranspose2dFloat64(output, x, kernel, stride, padding, outH, outW)
	default:
		panic(fmt.Sprintf("convTranspose2d: unsupported dtype %s", x.DType()))
	}

	return output
}

func convTranspose2dFloat32(output, x, kernel *tensor.RawTensor, stride, padding, outH, outW int) {
	xShape := x.Shape()
	kernelShape := kernel.Shape()

	N := xShape[0]
	COut := xShape[1]
	HIn := xShape[2]
	WIn := xShape[3]
	CIn := kernelShape[1]
	KH := kernelShape[2]
	KW := kernelShape[3]

	xData := x.AsFloat32()
	kernelData := kernel.AsFloat32()
	outputData := output.AsFloat32()

	// Scatter: each input element contributes a kernel-shaped patch to the
	// output at the position the forward convolution read it from.
	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for hIn := 0; hIn < HIn; hIn++ {
				for wIn := 0; wIn < WIn; wIn++ {
					v := xData[n*COut*HIn*WIn+cOut*HIn*WIn+hIn*WIn+wIn]
					if v == 0 {
						continue
					}

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							h := hIn*stride - padding + kh
							if h < 0 || h >= outH {
								continue
							}
							for kw := 0; kw < KW; kw++ {
								w := wIn*stride - padding + kw
								if w < 0 || w >= outW {
									continue
								}

								outputIdx := n*CIn*outH*outW + cIn*outH*outW + h*outW + w
								kernelIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
								outputData[outputIdx] += v * kernelData[kernelIdx]
							}
						}
					}
				}
			}
		}
	}
}

func convTranspose2dFloat64(output, x, kernel *tensor.RawTensor, stride, padding, outH, outW int) {
	xShape := x.Shape()
	kernelShape := kernel.Shape()

	N := xShape[0]
	COut := xShape[1]
	HIn := xShape[2]
	WIn := xShape[3]
	CIn := kernelShape[1]
	KH := kernelShape[2]
	KW := kernelShape[3]

	xData := x.AsFloat64()
	kernelData := kernel.AsFloat64()
	outputData := output.AsFloat64()

	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for hIn := 0; hIn < HIn; hIn++ {
				for wIn := 0; wIn < WIn; wIn++ {
					v := xData[n*COut*HIn*WIn+cOut*HIn*WIn+hIn*WIn+wIn]
					if v == 0 {
						continue
					}

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							h := hIn*stride - padding + kh
							if h < 0 || h >= outH {
								continue
							}
							for kw := 0; kw < KW; kw++ {
								w := wIn*stride - padding + kw
								if w < 0 || w >= outW {
									continue
								}

								outputIdx := n*CIn*outH*outW + cIn*outH*outW + h*outW + w
								kernelIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
								outputData[outputIdx] += v * kernelData[kernelIdx]
							}
						}
					}
				}
			}
		}
	}
}

// Conv2DKernelBackward computes the gradient of Conv2D with respect to
// the kernel: grad_kernel[cOut,cIn,kh,kw] = sum over batch and output
// positions of input * grad.
//
// Input shape: [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w] (used for the result shape)
// Grad shape: [N, C_out, H_out, W_out]
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	if len(inputShape) != 4 || len(kernelShape) != 4 || len(gradShape) != 4 {
		panic("conv2dKernelBackward: all tensors must be 4D")
	}
	if inputShape[1] != kernelShape[1] {
		panic(fmt.Sprintf("conv2dKernelBackward: input channels %d != kernel channels %d", inputShape[1], kernelShape[1]))
	}
	if gradShape[1] != kernelShape[0] {
		panic(fmt.Sprintf("conv2dKernelBackward: grad channels %d != kernel output channels %d", gradShape[1], kernelShape[0]))
	}

	result, err := tensor.NewRaw(kernelShape.Clone(), kernel.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2dKernelBackward: failed to create result tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dKernelBackwardFloat32(result, input, grad, stride, padding)
	case tensor.Float64:
		conv2dKernelBackwardFloat64(result, input, grad, stride, padding)
	default:
		panic(fmt.Sprintf("conv2dKernelBackward: unsupported dtype %s", input.DType()))
	}

	return result
}

func conv2dKernelBackwardFloat32(result, input, grad *tensor.RawTensor, stride, padding int) {
	inputShape := input.Shape()
	resultShape := result.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := resultShape[0]
	KH := resultShape[2]
	KW := resultShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	inputData := input.AsFloat32()
	gradData := grad.AsFloat32()
	resultData := result.AsFloat32()

	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					g := gradData[n*COut*HOut*WOut+cOut*HOut*WOut+outH*WOut+outW]
					if g == 0 {
						continue
					}

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							h := outH*stride - padding + kh
							if h < 0 || h >= H {
								continue
							}
							for kw := 0; kw < KW; kw++ {
								w := outW*stride - padding + kw
								if w < 0 || w >= W {
									continue
								}

								inputIdx := n*CIn*H*W + cIn*H*W + h*W + w
								resultIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
								resultData[resultIdx] += inputData[inputIdx] * g
							}
						}
					}
				}
			}
		}
	}
}

func conv2dKernelBackwardFloat64(result, input, grad *tensor.RawTensor, stride, padding int) {
	inputShape := input.Shape()
	resultShape := result.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := resultShape[0]
	KH := resultShape[2]
	KW := resultShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	inputData := input.AsFloat64()
	gradData := grad.AsFloat64()
	resultData := result.AsFloat64()

	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					g := gradData[n*COut*HOut*WOut+cOut*HOut*WOut+outH*WOut+outW]
					if g == 0 {
						continue
					}

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							h := outH*stride - padding + kh
							if h < 0 || h >= H {
								continue
							}
							for kw := 0; kw < KW; kw++ {
								w := outW*stride - padding + kw
								if w < 0 || w >= W {
									continue
								}

								inputIdx := n*CIn*H*W + cIn*H*W + h*W + w
								resultIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
								resultData[resultIdx] += inputData[inputIdx] * g
							}
						}
					}
				}
			}
		}
	}
}
