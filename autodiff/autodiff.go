// Copyright 2025 Glint ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// The package wraps any backend with a gradient tape that records
// operations and replays them backwards to compute gradients:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
//
//	backend.Tape().StartRecording()
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, backend)
package autodiff

import (
	"github.com/glint-ml/glint/internal/autodiff"
	"github.com/glint-ml/glint/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates an autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is the constraint for backends that support
// backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients of a scalar-like output with respect to
// every recorded input, seeding the output gradient with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}

// VJP computes the vector-Jacobian product of output with the given
// cotangent. With createGraph set, the backward pass itself is recorded
// so the result can be differentiated again.
func VJP[T tensor.DType, B BackwardCapable](output, cotangent *tensor.Tensor[T, B], backend B, createGraph bool) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.VJP(output, cotangent, backend, createGraph)
}
