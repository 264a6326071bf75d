// Copyright 2025 Glint ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides denoiser architectures and the gradient-step
// regularizer wrapper.
package models

import (
	"github.com/glint-ml/glint/internal/autodiff"
	"github.com/glint-ml/glint/internal/models"
	"github.com/glint-ml/glint/tensor"
)

// Denoiser is the interface for image denoisers. Blind denoisers ignore
// the sigma argument.
type Denoiser[B tensor.Backend] = models.Denoiser[B]

// DnCNN is a residual convolutional denoiser.
type DnCNN[B tensor.Backend] = models.DnCNN[B]

// NewDnCNN creates a DnCNN denoiser with the given channel count,
// hidden width and depth.
func NewDnCNN[B tensor.Backend](channels, hidden, depth int, backend B) *DnCNN[B] {
	return models.NewDnCNN(channels, hidden, depth, backend)
}

// GradStepDenoiser turns a denoiser into an explicit regularizer
// g(x) = 0.5 ||x - N(x, sigma)||^2 with an exact gradient through the
// denoiser's Jacobian.
type GradStepDenoiser[B autodiff.BackwardCapable] = models.GradStepDenoiser[B]

// NewGradStepDenoiser wraps a denoiser as a gradient-step regularizer.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	prior := models.NewGradStepDenoiser[*autodiff.Backend[*cpu.Backend]](
//	    models.NewDnCNN[*autodiff.Backend[*cpu.Backend]](1, 64, 17, backend),
//	    backend,
//	)
//	xhat, dg := prior.Forward(x, 0.05)
func NewGradStepDenoiser[B autodiff.BackwardCapable](denoiser Denoiser[B], backend B) *GradStepDenoiser[B] {
	return models.NewGradStepDenoiser(denoiser, backend)
}
