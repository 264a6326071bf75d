package ops

import "github.com/glint-ml/glint/internal/tensor"

// TanhOp represents a hyperbolic tangent activation: output = tanh(x).
//
// Backward pass:
//   - d(tanh(x))/dx = 1 - tanh²(x), so grad_x = outputGrad * (1 - output²)
type TanhOp struct {
	input  *tensor.RawTensor // x
	output *tensor.RawTensor // tanh(x)
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{
		input:  input,
		output: output,
	}
}

// Backward computes input gradient for tanh.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// 1 - output²
	ySquared := backend.Mul(op.output, op.output)
	deriv := backend.AddScalar(backend.MulScalar(ySquared, -1.0), 1.0)

	gradInput := backend.Mul(outputGrad, deriv)
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor {
	return op.output
}
