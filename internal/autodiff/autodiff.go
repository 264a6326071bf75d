// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient
// tracking capabilities through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op (Add, Mul, Conv2D, ...) implements backward pass
//   - Reverse-mode AD: Computes gradients efficiently using chain rule
//
// Beyond plain backward passes, the tape supports vector-Jacobian products
// with an arbitrary cotangent (GradientTape.Grad), and can keep recording
// while the backward pass runs so that the gradient computation is itself
// differentiable. Regularizers built from denoiser residuals rely on both.
//
// Usage:
//
//	// Wrap any backend with autodiff
//	cpuBackend := cpu.New()
//	ad := autodiff.New(cpuBackend)
//
//	// Use with tensors
//	x := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, ad)
//	y := x.Mul(x) // y = x²
//
//	// Compute gradients
//	gradients := autodiff.Backward(y, ad)
package autodiff

import (
	"github.com/glint-ml/glint/internal/autodiff/ops"
	"github.com/glint-ml/glint/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend (CPU, GPU, etc.)
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
// Useful for:
//   - Starting/stopping recording
//   - Clearing tape between iterations
//   - Inspecting recorded operations
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// NoGrad runs fn with recording suspended and restores the previous
// recording state afterwards. Nested calls are safe.
//
// Used for evaluation passes and for operators whose gradients are known
// in closed form, where taping the forward pass would only waste memory.
func (b *AutodiffBackend[B]) NoGrad(fn func()) {
	wasRecording := b.tape.recording
	b.tape.recording = false
	defer func() {
		b.tape.recording = wasRecording
	}()
	fn()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	// CRITICAL: Prevent inplace modification that would corrupt autodiff graph.
	// Temporarily increase refCount so IsUnique() returns false.
	// This forces the inner backend to allocate a new result.
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Add(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(a, c, result))
	}

	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Sub(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(a, c, result))
	}

	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Mul(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(a, c, result))
	}

	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Div(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(a, c, result))
	}

	return result
}

// MulScalar multiplies by a scalar and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.MulScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulScalarOp(x, result, scalar))
	}

	return result
}

// AddScalar adds a scalar and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.AddScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddScalarOp(x, result))
	}

	return result
}

// SubScalar subtracts a scalar and records the operation.
func (b *AutodiffBackend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.SubScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubScalarOp(x, result))
	}

	return result
}

// DivScalar divides by a scalar and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.DivScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivScalarOp(x, result, scalar))
	}

	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.MatMul(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(a, c, result))
	}

	return result
}

// Conv2D performs 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()

	result := b.inner.Conv2D(input, kernel, stride, padding)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewConv2DOp(input, kernel, result, stride, padding))
	}

	return result
}

// ConvTranspose2D performs a transposed convolution and records the operation.
//
// Conv2DOp.Backward emits this operation for the input gradient. Recording
// it keeps backward passes differentiable, which second derivatives of
// convolutional networks require.
func (b *AutodiffBackend[B]) ConvTranspose2D(x, kernel *tensor.RawTensor, stride, padding, outH, outW int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer kernel.ForceNonUnique()()

	result := b.inner.ConvTranspose2D(x, kernel, stride, padding, outH, outW)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewConvTranspose2DOp(x, kernel, result, stride, padding))
	}

	return result
}

// Conv2DKernelBackward computes the kernel gradient of a convolution.
//
// Not recorded: second derivatives with respect to convolution kernels are
// out of scope, and taping this op would require a third adjoint kernel.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()
	defer grad.ForceNonUnique()()

	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// ReLU applies ReLU activation and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.ReLU(x)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReLUOp(x, result))
	}

	return result
}

// Tanh applies hyperbolic tangent activation and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Tanh(x)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTanhOp(x, result))
	}

	return result
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sum(x)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumOp(x, result))
	}

	return result
}

// Reshape reshapes a tensor and records the operation.
//
// CRITICAL: Like Transpose, Reshape must be recorded on tape!
// Without recording, gradients won't flow back to reshaped parameters.
//
// Example: Conv2D bias
//   - bias parameter: [out_channels]
//   - reshaped for broadcasting: [1, out_channels, 1, 1]
//   - Without ReshapeOp: gradient computed for reshaped tensor only
//   - With ReshapeOp: gradient propagates back to original bias parameter
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	result := b.inner.Reshape(t, newShape)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(t, result))
	}

	return result
}

// Transpose transposes a tensor and records the operation.
//
// CRITICAL: Even though conceptually transpose is a "view", the underlying
// backend may create a new tensor. Without recording, gradients computed
// for the transposed tensor never reach the original parameter.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	// Handle default axes (reverse all dimensions)
	ndim := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := b.inner.Transpose(t, axes...)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(t, result, axes))
	}

	return result
}

// Unsqueeze inserts a size-1 dimension and records the operation.
func (b *AutodiffBackend[B]) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Unsqueeze(x, dim)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewUnsqueezeOp(x, result))
	}

	return result
}

// Squeeze removes a size-1 dimension and records the operation.
func (b *AutodiffBackend[B]) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Squeeze(x, dim)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSqueezeOp(x, result))
	}

	return result
}
