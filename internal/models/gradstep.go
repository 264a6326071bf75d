package models

import (
	"github.com/glint-ml/glint/internal/autodiff"
	"github.com/glint-ml/glint/internal/tensor"
)

// GradStepDenoiser turns a denoiser N into an explicit regularizer
//
//	g(x) = 0.5 ||x - N(x, sigma)||^2
//
// with an exact gradient computed through the denoiser's Jacobian:
//
//	grad g(x) = (I - J_N(x))^T (x - N(x, sigma))
//
// For denoisers with a symmetric Jacobian (gradient-field denoisers),
// this equals the true gradient of g. The symmetry is assumed, not
// checked; for an arbitrary denoiser the result is the standard
// approximation used by gradient-step plug-and-play schemes.
//
// The backend must be gradient-capable because the Jacobian-vector
// pullback runs the tape with the graph kept alive, so the returned
// gradient is itself differentiable (needed when the regularizer sits
// inside an outer optimization).
//
// Nothing is cached between calls: each Potential/PotentialGrad call
// re-runs the denoiser.
type GradStepDenoiser[B autodiff.BackwardCapable] struct {
	denoiser Denoiser[B]
	backend  B
}

// NewGradStepDenoiser wraps a denoiser as a gradient-step regularizer.
//
// Any type satisfying Denoiser may be passed; the wrapper imposes no
// base type on the denoiser.
func NewGradStepDenoiser[B autodiff.BackwardCapable](denoiser Denoiser[B], backend B) *GradStepDenoiser[B] {
	return &GradStepDenoiser[B]{
		denoiser: denoiser,
		backend:  backend,
	}
}

// Denoiser returns the wrapped denoiser.
func (g *GradStepDenoiser[B]) Denoiser() Denoiser[B] {
	return g.denoiser
}

// Potential evaluates the regularizer value g(x) = 0.5 ||x - N(x, sigma)||^2.
//
// Returns a scalar tensor of shape [1].
func (g *GradStepDenoiser[B]) Potential(x *tensor.Tensor[float32, B], sigma float32) *tensor.Tensor[float32, B] {
	n := g.denoiser.Denoise(x, sigma)
	r := x.Sub(n)
	return r.Mul(r).Sum().MulScalar(0.5)
}

// PotentialGrad computes grad g(x) = r - J_N(x)^T r where r = x - N(x, sigma).
//
// The Jacobian pullback J^T r is a vector-Jacobian product over the
// denoiser's forward graph, run with the graph kept alive so the result
// stays differentiable. Sigma broadcasting and shape mismatches are the
// denoiser's concern; no validation happens here.
func (g *GradStepDenoiser[B]) PotentialGrad(x *tensor.Tensor[float32, B], sigma float32) *tensor.Tensor[float32, B] {
	tape := g.backend.GetTape()

	// The denoiser forward must be recorded to pull the cotangent back
	// through it. If the caller is not already recording, record locally
	// and reset the tape afterwards.
	if !tape.IsRecording() {
		tape.StartRecording()
		defer func() {
			tape.StopRecording()
			tape.Clear()
		}()
	}

	n := g.denoiser.Denoise(x, sigma)
	r := x.Sub(n)

	grads := tape.Grad(n.Raw(), r.Raw(), g.backend, true)

	jtr := grads[x.Raw()]
	if jtr == nil {
		// The denoiser output does not depend on x (e.g. a constant
		// denoiser): the pullback is zero and grad g reduces to r.
		return r
	}

	return r.Sub(tensor.New[float32, B](jtr, g.backend))
}

// Forward performs one gradient step on the regularizer.
//
// Returns the stepped estimate x - grad g(x, sigma) together with the
// gradient itself; callers such as reconstruction solvers need both.
func (g *GradStepDenoiser[B]) Forward(x *tensor.Tensor[float32, B], sigma float32) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	dg := g.PotentialGrad(x, sigma)
	return x.Sub(dg), dg
}
