// Copyright 2025 Glint ML Toolkit. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"golang.org/x/exp/rand"

	"github.com/glint-ml/glint/internal/tensor"
)

// Bernoulli creates a tensor of zeros and ones where each entry is one
// with probability p. A nil src uses the global source.
func Bernoulli[T DType, B Backend](shape Shape, p float64, src rand.Source, b B) *Tensor[T, B] {
	return tensor.Bernoulli[T, B](shape, p, src, b)
}

// Normal creates a tensor with samples from N(mu, sigma^2). A nil src
// uses the global source.
func Normal[T DType, B Backend](shape Shape, mu, sigma float64, src rand.Source, b B) *Tensor[T, B] {
	return tensor.Normal[T, B](shape, mu, sigma, src, b)
}
