package ops

import "github.com/glint-ml/glint/internal/tensor"

// UnsqueezeOp represents insertion of a size-1 dimension.
//
// Backward pass: reshape the gradient back to the input shape. Like
// reshape, element order is unchanged.
type UnsqueezeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewUnsqueezeOp creates a new UnsqueezeOp.
func NewUnsqueezeOp(input, output *tensor.RawTensor) *UnsqueezeOp {
	return &UnsqueezeOp{input: input, output: output}
}

// Backward reshapes the gradient back to the input shape.
func (op *UnsqueezeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

// Inputs returns the input tensor [x].
func (op *UnsqueezeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the expanded tensor.
func (op *UnsqueezeOp) Output() *tensor.RawTensor {
	return op.output
}

// SqueezeOp represents removal of a size-1 dimension.
type SqueezeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqueezeOp creates a new SqueezeOp.
func NewSqueezeOp(input, output *tensor.RawTensor) *SqueezeOp {
	return &SqueezeOp{input: input, output: output}
}

// Backward reshapes the gradient back to the input shape.
func (op *SqueezeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

// Inputs returns the input tensor [x].
func (op *SqueezeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the squeezed tensor.
func (op *SqueezeOp) Output() *tensor.RawTensor {
	return op.output
}
