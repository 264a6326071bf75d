// Package nn implements neural network modules for the Glint toolkit.
//
// This package provides the building blocks used by denoisers and forward
// operators:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named tensors, trainable or fixed buffers
//   - Conv2D: 2D convolutional layer
//   - Activations: ReLU, Tanh
//   - Sequential: Container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/glint-ml/glint/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[Backend](
//	    nn.NewConv2D(1, 16, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewConv2D(16, 1, 3, 3, 1, 1, true, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all registered parameters of this module,
	// trainable parameters and fixed buffers alike. Optimizers filter
	// on Parameter.Trainable().
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors for
	// serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
