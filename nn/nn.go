// Copyright 2025 Glint ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks.
//
// Modules compose into networks; parameters carry the trainable state
// and buffers the fixed state. Checkpointing round-trips state
// dictionaries through the GLNT file format:
//
//	model := nn.NewSequential[*cpu.Backend](
//	    nn.NewConv2D[*cpu.Backend](1, 16, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[*cpu.Backend](),
//	)
//	err := nn.Save[*cpu.Backend]("model.glnt", model, "Sequential", nil)
package nn

import (
	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/tensor"
)

// Module is the interface implemented by all network components.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named tensor tracked by modules and optimizers.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// NewBuffer creates a non-trainable parameter. Buffers travel with the
// module state but optimizers skip them.
func NewBuffer[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewBuffer(name, t)
}

// Conv2D is a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a 2D convolutional layer with Xavier-initialized
// weights.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// ReLU is the rectified linear activation module.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Tanh is the hyperbolic tangent activation module.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Sequential chains modules, feeding each output into the next module.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Save writes a model checkpoint in the GLNT format.
func Save[B tensor.Backend](path string, model Module[B], modelType string, metadata map[string]string) error {
	return nn.Save(path, model, modelType, metadata)
}

// SaveHalf writes a checkpoint with float32 tensors stored as float16.
func SaveHalf[B tensor.Backend](path string, model Module[B], modelType string, metadata map[string]string) error {
	return nn.SaveHalf(path, model, modelType, metadata)
}

// Load restores a model from a GLNT checkpoint.
func Load[B tensor.Backend](path string, model Module[B], backend B) error {
	return nn.Load(path, model, backend)
}
