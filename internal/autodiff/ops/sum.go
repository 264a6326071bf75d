package ops

import "github.com/glint-ml/glint/internal/tensor"

// SumOp represents a full reduction: output = sum(x), a scalar.
//
// Backward pass: the gradient of a sum broadcasts the (scalar) output
// gradient back over the input shape.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{
		input:  input,
		output: output,
	}
}

// Backward broadcasts the scalar gradient over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// Mul broadcasts the scalar against a ones tensor of the input shape,
	// and stays recorded when the backward pass itself is being taped.
	gradInput := backend.Mul(outputGrad, onesLike(op.input, backend))
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the scalar sum.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}
