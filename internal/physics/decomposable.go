package physics

import (
	"fmt"

	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/tensor"
)

// Transform maps a tensor to a tensor; used for the U and V factors of a
// decomposable operator. A nil Transform is the identity.
type Transform[B tensor.Backend] func(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

// DecomposablePhysics is a forward operator with the decomposition
//
//	A = U diag(m) V^T
//
// where U and V are orthonormal transforms and m is a diagonal mask.
// The decomposition gives closed forms for the adjoint, the
// pseudo-inverse and the L2 proximal operator, which reconstruction
// solvers exploit.
//
// The mask is registered as a non-trainable buffer: it participates in
// every operation and is persisted by StateDict, but optimizers leave it
// alone.
type DecomposablePhysics[B tensor.Backend] struct {
	u, uAdjoint Transform[B]
	v, vAdjoint Transform[B]

	mask  *nn.Parameter[B]
	noise NoiseModel[B]

	backend B
}

// DecomposableConfig configures a DecomposablePhysics.
//
// Nil transforms default to the identity; a nil Noise means noiseless
// measurements.
type DecomposableConfig[B tensor.Backend] struct {
	U        Transform[B]
	UAdjoint Transform[B]
	V        Transform[B]
	VAdjoint Transform[B]
	Mask     *tensor.Tensor[float32, B]
	Noise    NoiseModel[B]
}

// NewDecomposablePhysics creates a decomposable forward operator.
func NewDecomposablePhysics[B tensor.Backend](cfg DecomposableConfig[B], backend B) *DecomposablePhysics[B] {
	mask := cfg.Mask
	if mask == nil {
		// Scalar one: identity diagonal under broadcasting.
		mask = tensor.Ones[float32](tensor.Shape{1}, backend)
	}

	return &DecomposablePhysics[B]{
		u:        cfg.U,
		uAdjoint: cfg.UAdjoint,
		v:        cfg.V,
		vAdjoint: cfg.VAdjoint,
		mask:     nn.NewBuffer("mask", mask),
		noise:    cfg.Noise,
		backend:  backend,
	}
}

// U applies the measurement-side factor.
func (p *DecomposablePhysics[B]) U(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return applyTransform(p.u, x)
}

// UAdjoint applies the adjoint of U.
func (p *DecomposablePhysics[B]) UAdjoint(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return applyTransform(p.uAdjoint, x)
}

// V applies the image-side factor.
func (p *DecomposablePhysics[B]) V(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return applyTransform(p.v, x)
}

// VAdjoint applies the adjoint of V.
func (p *DecomposablePhysics[B]) VAdjoint(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return applyTransform(p.vAdjoint, x)
}

func applyTransform[B tensor.Backend](t Transform[B], x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if t == nil {
		return x
	}
	return t(x)
}

// Mask returns the diagonal mask tensor.
func (p *DecomposablePhysics[B]) Mask() *tensor.Tensor[float32, B] {
	return p.mask.Tensor()
}

// NoiseModel returns the attached noise model, or nil.
func (p *DecomposablePhysics[B]) NoiseModel() NoiseModel[B] {
	return p.noise
}

// A applies the forward operator: A(x) = U(m * V^T(x)).
//
// The input is never modified: backends may update unique buffers in
// place, so the operand is pinned for the duration of the call.
func (p *DecomposablePhysics[B]) A(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	defer x.Raw().ForceNonUnique()()
	return p.U(p.VAdjoint(x).Mul(p.mask.Tensor()))
}

// AAdjoint applies the adjoint: A^T(y) = V(m * U^T(y)).
func (p *DecomposablePhysics[B]) AAdjoint(y *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	defer y.Raw().ForceNonUnique()()
	return p.V(p.UAdjoint(y).Mul(p.mask.Tensor()))
}

// ADagger applies the Moore-Penrose pseudo-inverse:
//
//	A^+(y) = V(m^+ * U^T(y))
//
// where m^+ inverts nonzero diagonal entries and zeroes the rest. For a
// binary mask this equals the adjoint.
func (p *DecomposablePhysics[B]) ADagger(y *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	defer y.Raw().ForceNonUnique()()
	return p.V(p.UAdjoint(y).Mul(p.maskPinv()))
}

// maskPinv computes the entry-wise pseudo-inverse of the mask.
func (p *DecomposablePhysics[B]) maskPinv() *tensor.Tensor[float32, B] {
	m := p.mask.Tensor()
	pinv := tensor.Zeros[float32](m.Shape(), p.backend)

	src := m.Data()
	dst := pinv.Data()
	for i, v := range src {
		if v > 1e-5 || v < -1e-5 {
			dst[i] = 1 / v
		}
	}
	return pinv
}

// ProxL2 computes the proximal operator of f(x) = 0.5 ||A(x) - y||^2:
//
//	prox_{gamma f}(z) = V((gamma*m*U^T(y) + V^T(z)) / (gamma*m^2 + 1))
//
// This is the exact minimizer, available in closed form thanks to the
// diagonal decomposition.
func (p *DecomposablePhysics[B]) ProxL2(z, y *tensor.Tensor[float32, B], gamma float32) *tensor.Tensor[float32, B] {
	m := p.mask.Tensor()
	defer z.Raw().ForceNonUnique()()
	defer y.Raw().ForceNonUnique()()
	defer m.Raw().ForceNonUnique()()

	numerator := p.UAdjoint(y).Mul(m).MulScalar(gamma).Add(p.VAdjoint(z))
	denominator := m.Mul(m).MulScalar(gamma).AddScalar(1)

	return p.V(numerator.Div(denominator))
}

// Noise injects measurement noise through the decomposition:
//
//	N(y) = U(V^T(V(U^T(noise(y)) * m)))
//
// so the perturbation lives in the operator's range. With a nil noise
// model the measurements pass through unchanged.
func (p *DecomposablePhysics[B]) Noise(y *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if p.noise == nil {
		return y
	}
	defer y.Raw().ForceNonUnique()()
	inner := p.V(p.UAdjoint(p.noise.Apply(y)).Mul(p.mask.Tensor()))
	return p.U(p.VAdjoint(inner))
}

// Forward produces measurements: y = Noise(A(x)).
func (p *DecomposablePhysics[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return p.Noise(p.A(x))
}

// StateDict returns the persisted operator state (the mask).
func (p *DecomposablePhysics[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"mask": p.mask.Tensor().Raw(),
	}
}

// LoadStateDict restores the mask from a state dictionary.
func (p *DecomposablePhysics[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	maskRaw, ok := stateDict["mask"]
	if !ok {
		return fmt.Errorf("missing mask in state dict")
	}
	if maskRaw.DType() != tensor.Float32 {
		return fmt.Errorf("mask dtype mismatch: expected float32, got %v", maskRaw.DType())
	}
	if !maskRaw.Shape().Equal(p.mask.Tensor().Shape()) {
		return fmt.Errorf("mask shape mismatch: expected %v, got %v",
			p.mask.Tensor().Shape(), maskRaw.Shape())
	}

	copy(p.mask.Tensor().Data(), maskRaw.AsFloat32())
	return nil
}
