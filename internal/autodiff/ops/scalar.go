package ops

import "github.com/glint-ml/glint/internal/tensor"

// MulScalarOp represents scalar multiplication: output = x * s.
//
// Backward pass: grad_x = outputGrad * s.
type MulScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar any
}

// NewMulScalarOp creates a new MulScalarOp.
func NewMulScalarOp(x, output *tensor.RawTensor, scalar any) *MulScalarOp {
	return &MulScalarOp{input: x, output: output, scalar: scalar}
}

// Backward computes the input gradient for scalar multiplication.
func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

// Inputs returns the input tensor [x].
func (op *MulScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor x * s.
func (op *MulScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// AddScalarOp represents scalar addition: output = x + s.
//
// Backward pass: grad_x = outputGrad (the scalar shift has zero derivative).
type AddScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddScalarOp creates a new AddScalarOp.
func NewAddScalarOp(x, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{input: x, output: output}
}

// Backward passes the gradient through unchanged. The pass-through goes
// via a backend Reshape so that it is recorded when the tape is live,
// keeping the gradient differentiable.
func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, outputGrad.Shape())}
}

// Inputs returns the input tensor [x].
func (op *AddScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor x + s.
func (op *AddScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// SubScalarOp represents scalar subtraction: output = x - s.
//
// Backward pass: grad_x = outputGrad.
type SubScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSubScalarOp creates a new SubScalarOp.
func NewSubScalarOp(x, output *tensor.RawTensor) *SubScalarOp {
	return &SubScalarOp{input: x, output: output}
}

// Backward passes the gradient through unchanged, routed through a
// backend Reshape so the tape records it when live.
func (op *SubScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, outputGrad.Shape())}
}

// Inputs returns the input tensor [x].
func (op *SubScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor x - s.
func (op *SubScalarOp) Output() *tensor.RawTensor {
	return op.output
}

// DivScalarOp represents scalar division: output = x / s.
//
// Backward pass: grad_x = outputGrad / s.
type DivScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar any
}

// NewDivScalarOp creates a new DivScalarOp.
func NewDivScalarOp(x, output *tensor.RawTensor, scalar any) *DivScalarOp {
	return &DivScalarOp{input: x, output: output, scalar: scalar}
}

// Backward computes the input gradient for scalar division.
func (op *DivScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
}

// Inputs returns the input tensor [x].
func (op *DivScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor x / s.
func (op *DivScalarOp) Output() *tensor.RawTensor {
	return op.output
}
