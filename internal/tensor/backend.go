package tensor

// Backend defines the compute contract every device implementation must
// satisfy. The CPU backend is the reference implementation; the autodiff
// decorator wraps any Backend and records operations for differentiation.
type Backend interface {
	// Element-wise binary operations with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with a scalar).
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Matrix multiplication for 2D tensors.
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution and its adjoint kernels.
	//
	// ConvTranspose2D scatters a [N, C_out, H_out, W_out] tensor back
	// through the kernel to [N, C_in, outH, outW]; it is the adjoint of
	// Conv2D in the input argument and a first-class operation so that
	// gradients of convolutions stay differentiable.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	ConvTranspose2D(x, kernel *RawTensor, stride, padding, outH, outW int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Activations.
	ReLU(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor // total sum, scalar result

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
