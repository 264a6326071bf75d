// Copyright 2025 Glint ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package solver provides iterative reconstruction algorithms and
// image quality metrics.
package solver

import (
	"github.com/glint-ml/glint/internal/autodiff"
	"github.com/glint-ml/glint/internal/models"
	"github.com/glint-ml/glint/internal/solver"
	"github.com/glint-ml/glint/tensor"
)

// Physics is the operator surface the solvers require.
type Physics[B tensor.Backend] = solver.Physics[B]

// PnP is a plug-and-play half-quadratic splitting solver.
type PnP[B autodiff.BackwardCapable] = solver.PnP[B]

// PnPConfig holds the solver hyperparameters.
type PnPConfig = solver.PnPConfig

// PnPResult carries the reconstruction and per-iteration diagnostics.
type PnPResult[B tensor.Backend] = solver.PnPResult[B]

// NewPnP creates a plug-and-play solver around a gradient-step prior.
func NewPnP[B autodiff.BackwardCapable](prior *models.GradStepDenoiser[B], cfg PnPConfig, backend B) *PnP[B] {
	return solver.NewPnP(prior, cfg, backend)
}

// MSE computes the mean squared error between two tensors.
func MSE[B tensor.Backend](x, ref *tensor.Tensor[float32, B]) float32 {
	return solver.MSE(x, ref)
}

// PSNR computes the peak signal-to-noise ratio in decibels.
func PSNR[B tensor.Backend](x, ref *tensor.Tensor[float32, B], maxPixel float32) float32 {
	return solver.PSNR(x, ref, maxPixel)
}
