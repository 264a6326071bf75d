// Copyright 2025 Glint ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package physics provides forward measurement operators for imaging
// inverse problems: y = N(A(x)) for a linear operator A and noise
// model N.
package physics

import (
	"golang.org/x/exp/rand"

	"github.com/glint-ml/glint/internal/physics"
	"github.com/glint-ml/glint/tensor"
)

// Source is the random source consumed by mask construction and noise
// models. A nil Source falls back to the global source.
type Source = rand.Source

// Transform maps a tensor to a tensor; the U and V factors of a
// decomposable operator.
type Transform[B tensor.Backend] = physics.Transform[B]

// DecomposablePhysics is a forward operator A = U diag(m) V^T with
// closed-form adjoint, pseudo-inverse and L2 proximal operator.
type DecomposablePhysics[B tensor.Backend] = physics.DecomposablePhysics[B]

// DecomposableConfig configures a DecomposablePhysics.
type DecomposableConfig[B tensor.Backend] = physics.DecomposableConfig[B]

// NewDecomposablePhysics creates a decomposable forward operator.
func NewDecomposablePhysics[B tensor.Backend](cfg DecomposableConfig[B], backend B) *DecomposablePhysics[B] {
	return physics.NewDecomposablePhysics(cfg, backend)
}

// Inpainting observes an image through a binary pixel mask: y = m * x.
type Inpainting[B tensor.Backend] = physics.Inpainting[B]

// InpaintingConfig configures an Inpainting operator.
type InpaintingConfig[B tensor.Backend] = physics.InpaintingConfig[B]

// NewInpainting creates an inpainting operator.
//
// Example:
//
//	op := physics.NewInpainting(physics.InpaintingConfig[*cpu.Backend]{
//	    TensorSize: tensor.Shape{3, 64, 64},
//	    MaskRate:   0.7,
//	    Pixelwise:  true,
//	}, backend)
func NewInpainting[B tensor.Backend](cfg InpaintingConfig[B], backend B) *Inpainting[B] {
	return physics.NewInpainting(cfg, backend)
}

// Denoising is the identity operator with additive noise.
type Denoising[B tensor.Backend] = physics.Denoising[B]

// NewDenoising creates a denoising operator.
func NewDenoising[B tensor.Backend](noise NoiseModel[B], backend B) *Denoising[B] {
	return physics.NewDenoising(noise, backend)
}

// NoiseModel perturbs clean measurements.
type NoiseModel[B tensor.Backend] = physics.NoiseModel[B]

// GaussianNoise adds white Gaussian noise.
type GaussianNoise[B tensor.Backend] = physics.GaussianNoise[B]

// NewGaussianNoise creates a Gaussian noise model with standard
// deviation sigma.
func NewGaussianNoise[B tensor.Backend](sigma float64, src Source) *GaussianNoise[B] {
	return physics.NewGaussianNoise[B](sigma, src)
}

// PoissonNoise applies shot noise.
type PoissonNoise[B tensor.Backend] = physics.PoissonNoise[B]

// NewPoissonNoise creates a Poisson noise model with the given gain.
func NewPoissonNoise[B tensor.Backend](gain float64, src Source) *PoissonNoise[B] {
	return physics.NewPoissonNoise[B](gain, src)
}

// UniformNoise adds noise drawn uniformly from [low, high).
type UniformNoise[B tensor.Backend] = physics.UniformNoise[B]

// NewUniformNoise creates a uniform additive noise model.
func NewUniformNoise[B tensor.Backend](low, high float64, src Source) *UniformNoise[B] {
	return physics.NewUniformNoise[B](low, high, src)
}
