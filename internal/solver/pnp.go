// Package solver implements iterative reconstruction algorithms for
// imaging inverse problems.
//
// The solvers combine a physics operator (data fidelity) with a learned
// regularizer (prior) to recover an image x from measurements y = A(x).
package solver

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/glint-ml/glint/internal/autodiff"
	"github.com/glint-ml/glint/internal/models"
	"github.com/glint-ml/glint/internal/tensor"
)

// Physics is the operator surface the solvers need. DecomposablePhysics
// and its concrete operators satisfy it.
type Physics[B tensor.Backend] interface {
	A(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	ADagger(y *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	ProxL2(z, y *tensor.Tensor[float32, B], gamma float32) *tensor.Tensor[float32, B]
}

// PnPConfig holds the hyperparameters of the plug-and-play solver.
type PnPConfig struct {
	Iterations int     // default 50
	StepSize   float32 // proximal step gamma, default 1.0
	Lambda     float32 // regularization weight, default 1.0
	Sigma      float32 // noise level passed to the denoiser prior
	Tol        float32 // relative-change stopping threshold, 0 disables

	// KeepIterates stores every intermediate estimate in the result,
	// for convergence diagnostics against a known ground truth.
	KeepIterates bool
}

// PnPResult carries the reconstruction and per-iteration diagnostics.
type PnPResult[B tensor.Backend] struct {
	X          *tensor.Tensor[float32, B]
	Residuals  []float32 // relative change per iteration
	Objectives []float32 // data fidelity + lambda * prior potential
	Iterates   []*tensor.Tensor[float32, B] // populated when KeepIterates is set
	Iterations int
}

// PnP is a plug-and-play half-quadratic splitting solver with a
// gradient-step denoiser prior. Each iteration takes a gradient step on
// the regularizer followed by an exact proximal step on the data term:
//
//	z_k = x_k - gamma * lambda * grad g(x_k)
//	x_{k+1} = prox_{gamma f}(z_k)
//
// The backend must be gradient-capable because the prior differentiates
// through its denoiser.
type PnP[B autodiff.BackwardCapable] struct {
	prior   *models.GradStepDenoiser[B]
	cfg     PnPConfig
	backend B
}

// NewPnP creates a plug-and-play solver around the given prior.
func NewPnP[B autodiff.BackwardCapable](prior *models.GradStepDenoiser[B], cfg PnPConfig, backend B) *PnP[B] {
	if cfg.Iterations == 0 {
		cfg.Iterations = 50
	}
	if cfg.StepSize == 0 {
		cfg.StepSize = 1
	}
	if cfg.Lambda == 0 {
		cfg.Lambda = 1
	}

	return &PnP[B]{
		prior:   prior,
		cfg:     cfg,
		backend: backend,
	}
}

// Config returns the solver hyperparameters.
func (s *PnP[B]) Config() PnPConfig {
	return s.cfg
}

// Solve reconstructs an image from measurements y under the given
// physics. The iteration starts from the pseudo-inverse estimate
// A^+(y).
//
// The prior manages the gradient tape internally, so Solve leaves the
// backend's tape in the state it found it.
func (s *PnP[B]) Solve(y *tensor.Tensor[float32, B], phys Physics[B]) (*PnPResult[B], error) {
	if y == nil {
		return nil, fmt.Errorf("solver: nil measurements")
	}
	if phys == nil {
		return nil, fmt.Errorf("solver: nil physics")
	}

	x := phys.ADagger(y)

	result := &PnPResult[B]{
		Residuals:  make([]float32, 0, s.cfg.Iterations),
		Objectives: make([]float32, 0, s.cfg.Iterations),
	}

	for k := 0; k < s.cfg.Iterations; k++ {
		dg := s.prior.PotentialGrad(x, s.cfg.Sigma)
		z := x.Sub(dg.MulScalar(s.cfg.StepSize * s.cfg.Lambda))
		next := phys.ProxL2(z, y, s.cfg.StepSize)

		residual := relativeChange(next, x)
		result.Residuals = append(result.Residuals, residual)
		result.Objectives = append(result.Objectives, s.objective(next, y, phys))
		if s.cfg.KeepIterates {
			result.Iterates = append(result.Iterates, next)
		}
		result.Iterations = k + 1

		x = next

		if s.cfg.Tol > 0 && residual < s.cfg.Tol {
			break
		}
	}

	result.X = x
	return result, nil
}

// objective evaluates 0.5||A(x) - y||^2 + lambda * g(x).
func (s *PnP[B]) objective(x, y *tensor.Tensor[float32, B], phys Physics[B]) float32 {
	r := phys.A(x).Sub(y)
	fidelity := r.Mul(r).Sum().Item() * 0.5
	prior := s.prior.Potential(x, s.cfg.Sigma).Item()
	return fidelity + s.cfg.Lambda*prior
}

// relativeChange computes ||next - prev|| / ||prev||, with the
// convention that a zero previous iterate gives the absolute norm.
func relativeChange[B tensor.Backend](next, prev *tensor.Tensor[float32, B]) float32 {
	var diffSq, prevSq float32
	nextData := next.Data()
	prevData := prev.Data()
	for i := range nextData {
		d := nextData[i] - prevData[i]
		diffSq += d * d
		prevSq += prevData[i] * prevData[i]
	}

	diff := math32.Sqrt(diffSq)
	norm := math32.Sqrt(prevSq)
	if norm == 0 {
		return diff
	}
	return diff / norm
}
