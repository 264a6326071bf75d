// Package models implements image denoisers and the gradient-step
// regularizer built on top of them.
//
// A Denoiser maps a noisy image and a noise level to an estimate of the
// clean image. GradStepDenoiser turns any denoiser into an explicit
// regularizer g(x) = 0.5 ||x - N(x, sigma)||^2 whose gradient is computed
// exactly through the denoiser's Jacobian, which is what plug-and-play
// reconstruction solvers consume.
package models

import (
	"github.com/glint-ml/glint/internal/tensor"
)

// Denoiser is the capability interface for image denoisers.
//
// Any type with a conforming Denoise method can be wrapped by
// GradStepDenoiser; there is no required base type.
type Denoiser[B tensor.Backend] interface {
	// Denoise estimates the clean image underlying x at noise level sigma.
	//
	// Implementations that do not condition on the noise level (blind
	// denoisers) ignore sigma. Shape handling is the implementation's
	// concern; inputs are typically [batch, channels, height, width].
	Denoise(x *tensor.Tensor[float32, B], sigma float32) *tensor.Tensor[float32, B]
}
