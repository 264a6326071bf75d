package ops

import (
	"github.com/glint-ml/glint/internal/tensor"
)

// ConvTranspose2DOp records a transposed 2D convolution for autodiff.
//
// Forward: output = ConvTranspose2D(x, kernel, stride, padding, outH, outW)
//
// The transposed convolution is the adjoint of Conv2D in its input, so its
// own gradients follow from the adjoint identity
// <u, ConvT(g, k)> == <g, Conv(u, k)>:
//   - d_x:      Conv2D(outputGrad, kernel, stride, padding)
//   - d_kernel: Conv2DKernelBackward with outputGrad as the image and x as
//     the output-side gradient
//
// Recording this operation is what makes second derivatives of convolutional
// networks work: the first backward pass emits ConvTranspose2D nodes, and
// differentiating those again lands here.
type ConvTranspose2DOp struct {
	input   *tensor.RawTensor
	kernel  *tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
}

// NewConvTranspose2DOp creates a new ConvTranspose2D operation.
func NewConvTranspose2DOp(x, kernel, output *tensor.RawTensor, stride, padding int) *ConvTranspose2DOp {
	return &ConvTranspose2DOp{
		input:   x,
		kernel:  kernel,
		output:  output,
		stride:  stride,
		padding: padding,
	}
}

// Inputs returns the input tensors.
func (op *ConvTranspose2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

// Output returns the output tensor.
func (op *ConvTranspose2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes gradients for ConvTranspose2D.
func (op *ConvTranspose2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.Conv2D(outputGrad, op.kernel, op.stride, op.padding)
	kernelGrad := backend.Conv2DKernelBackward(outputGrad, op.kernel, op.input, op.stride, op.padding)

	return []*tensor.RawTensor{inputGrad, kernelGrad}
}
