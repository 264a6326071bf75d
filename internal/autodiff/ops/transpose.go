package ops

import "github.com/glint-ml/glint/internal/tensor"

// TransposeOp represents a dimension permutation: output = transpose(x, axes).
//
// Backward pass: apply the inverse permutation to the output gradient.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{
		input:  input,
		output: output,
		axes:   axes,
	}
}

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// Invert the permutation: if axes[i] = j then inverse[j] = i
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}

	gradInput := backend.Transpose(outputGrad, inverse...)
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the transposed tensor.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}
