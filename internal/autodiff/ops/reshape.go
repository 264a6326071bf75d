package ops

import "github.com/glint-ml/glint/internal/tensor"

// ReshapeOp represents a reshape operation: output = reshape(x, newShape).
//
// Backward pass: reshape the output gradient back to the input shape.
// Reshape does not change element order, so the gradient passes through
// with only its shape adjusted.
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{
		input:  input,
		output: output,
	}
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := backend.Reshape(outputGrad, op.input.Shape())
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *ReshapeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the reshaped tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor {
	return op.output
}
