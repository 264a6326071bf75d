package autodiff

import (
	"fmt"

	"github.com/glint-ml/glint/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients for a tensor using the AutodiffBackend's tape.
//
// The output gradient is seeded with ones, the convention for scalar losses.
// For an arbitrary cotangent use VJP instead.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Ones[float32](Shape{2}, backend)
//	y := x.Mul(x) // y = x²
//	gradients := autodiff.Backward(y, backend)
//	grad := gradients[x.Raw()] // Get gradient for x
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	// Create output gradient: ones with same shape as output
	outputGrad, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := outputGrad.AsFloat32()
		for i := range data {
			data[i] = 1.0
		}
	case tensor.Float64:
		data := outputGrad.AsFloat64()
		for i := range data {
			data[i] = 1.0
		}
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32/float64 supported)", t.DType()))
	}

	return tape.Backward(outputGrad, backend)
}

// VJP computes the vector-Jacobian product of the recorded graph: the
// gradients of <cotangent, output> with respect to every recorded tensor.
//
// When createGraph is true, the backward pass is itself recorded on the
// tape, so the returned gradients remain differentiable.
//
// Example (Jᵀv for a network output):
//
//	backend.Tape().StartRecording()
//	y := model.Forward(x)
//	grads := autodiff.VJP(y, v, backend, false)
//	jtv := grads[x.Raw()]
func VJP[T tensor.DType, B BackwardCapable](
	output, cotangent *tensor.Tensor[T, B],
	backend B,
	createGraph bool,
) map[*tensor.RawTensor]*tensor.RawTensor {
	if !output.Shape().Equal(cotangent.Shape()) {
		panic(fmt.Sprintf("vjp: cotangent shape %v does not match output shape %v",
			cotangent.Shape(), output.Shape()))
	}

	tape := backend.GetTape()
	return tape.Grad(output.Raw(), cotangent.Raw(), backend, createGraph)
}
