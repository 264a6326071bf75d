package nn

import (
	"github.com/glint-ml/glint/internal/tensor"
)

// Parameter represents a named tensor registered on a module.
//
// A trainable parameter (NewParameter) is updated by optimizers and has a
// gradient slot filled during the backward pass. A buffer (NewBuffer) is
// fixed state: it participates in the forward pass and is serialized with
// the module, but optimizers skip it. Measurement masks and other operator
// state are buffers.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	mask := nn.NewBuffer("mask", maskTensor)
type Parameter[B tensor.Backend] struct {
	name      string
	tensor    *tensor.Tensor[float32, B]
	grad      *tensor.Tensor[float32, B]
	trainable bool
}

// NewParameter creates a new trainable parameter.
//
// The tensor should be initialized before creating the Parameter.
// The gradient is allocated during the first backward pass.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:      name,
		tensor:    t,
		trainable: true,
	}
}

// NewBuffer creates a fixed (non-trainable) parameter.
//
// Buffers are registered and serialized like parameters but excluded from
// optimizer updates.
func NewBuffer[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:      name,
		tensor:    t,
		trainable: false,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// SetTensor replaces the parameter tensor. Used when loading state dicts
// across devices.
func (p *Parameter[B]) SetTensor(t *tensor.Tensor[float32, B]) {
	p.tensor = t
}

// Trainable reports whether optimizers should update this parameter.
func (p *Parameter[B]) Trainable() bool {
	return p.trainable
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
//
// This is typically called by the training loop after a backward pass.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
//
// Call before each training iteration to avoid accumulating gradients
// from previous iterations.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
