package nn

import (
	"github.com/glint-ml/glint/internal/tensor"
)

// ReLU applies the rectified linear unit element-wise: max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU element-wise.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.ReLU()
}

// Parameters returns an empty slice (ReLU has no parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty state dict.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for ReLU.
func (r *ReLU[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh element-wise.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Parameters returns an empty slice (Tanh has no parameters).
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty state dict.
func (t *Tanh[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for Tanh.
func (t *Tanh[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}
