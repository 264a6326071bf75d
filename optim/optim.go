// Copyright 2025 Glint ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers.
package optim

import (
	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/optim"
	"github.com/glint-ml/glint/tensor"
)

// Optimizer is the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig holds SGD hyperparameters.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}

// Adam is the adaptive moment estimation optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig holds Adam hyperparameters.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer.
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 0.001,
//	}, backend)
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}
