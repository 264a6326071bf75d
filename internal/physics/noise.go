// Package physics implements forward measurement operators for imaging
// inverse problems.
//
// A forward operator maps a ground-truth image x to measurements
// y = N(A(x)) where A is a linear operator and N a noise model.
// DecomposablePhysics covers operators with a known SVD-like
// decomposition A = U diag(m) V^T, which admit closed-form
// pseudo-inverses and proximal steps. Inpainting and Denoising are
// concrete decomposable operators.
package physics

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/glint-ml/glint/internal/tensor"
)

// NoiseModel perturbs clean measurements.
type NoiseModel[B tensor.Backend] interface {
	// Apply returns a noisy version of x. The input is not modified.
	Apply(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// GaussianNoise adds white Gaussian noise: y = x + sigma*e, e ~ N(0, I).
type GaussianNoise[B tensor.Backend] struct {
	sigma float64
	src   rand.Source
}

// NewGaussianNoise creates a Gaussian noise model with standard deviation
// sigma. A nil src uses the global source.
func NewGaussianNoise[B tensor.Backend](sigma float64, src rand.Source) *GaussianNoise[B] {
	return &GaussianNoise[B]{sigma: sigma, src: src}
}

// Sigma returns the noise standard deviation.
func (g *GaussianNoise[B]) Sigma() float64 {
	return g.sigma
}

// Apply adds Gaussian noise to x.
func (g *GaussianNoise[B]) Apply(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	defer x.Raw().ForceNonUnique()()
	noise := tensor.Normal[float32](x.Shape(), 0, g.sigma, g.src, x.Backend())
	return x.Add(noise)
}

// PoissonNoise applies shot noise: y = gain * Poisson(x / gain).
//
// Negative intensities are clamped to zero before sampling.
type PoissonNoise[B tensor.Backend] struct {
	gain float64
	src  rand.Source
}

// NewPoissonNoise creates a Poisson noise model with the given gain.
// A nil src uses the global source.
func NewPoissonNoise[B tensor.Backend](gain float64, src rand.Source) *PoissonNoise[B] {
	if gain <= 0 {
		panic("physics: poisson gain must be positive")
	}
	return &PoissonNoise[B]{gain: gain, src: src}
}

// Apply samples Poisson-distributed measurements element-wise.
func (p *PoissonNoise[B]) Apply(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := tensor.Zeros[float32](x.Shape(), x.Backend())
	src := x.Data()
	data := out.Data()
	for i, v := range src {
		lambda := float64(v) / p.gain
		if lambda <= 0 {
			continue
		}
		dist := distuv.Poisson{Lambda: lambda, Src: p.src}
		data[i] = float32(dist.Rand() * p.gain)
	}
	return out
}

// UniformNoise adds noise drawn uniformly from [low, high).
type UniformNoise[B tensor.Backend] struct {
	low, high float64
	src       rand.Source
}

// NewUniformNoise creates a uniform additive noise model on [low, high).
// A nil src uses the global source.
func NewUniformNoise[B tensor.Backend](low, high float64, src rand.Source) *UniformNoise[B] {
	if high < low {
		panic("physics: uniform noise requires high >= low")
	}
	return &UniformNoise[B]{low: low, high: high, src: src}
}

// Apply adds uniform noise to x.
func (u *UniformNoise[B]) Apply(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	defer x.Raw().ForceNonUnique()()
	dist := distuv.Uniform{Min: u.low, Max: u.high, Src: u.src}

	noise := tensor.Zeros[float32](x.Shape(), x.Backend())
	data := noise.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}

	return x.Add(noise)
}
