package physics

import (
	"github.com/glint-ml/glint/internal/tensor"
)

// Denoising is the identity forward operator with additive noise:
//
//	y = N(x)
//
// It is the trivial decomposable operator (identity U, V and mask), so
// it plugs into the same solver machinery as any other physics.
type Denoising[B tensor.Backend] struct {
	*DecomposablePhysics[B]
}

// NewDenoising creates a denoising operator with the given noise model.
// A nil noise model yields the plain identity.
func NewDenoising[B tensor.Backend](noise NoiseModel[B], backend B) *Denoising[B] {
	dp := NewDecomposablePhysics(DecomposableConfig[B]{
		Noise: noise,
	}, backend)

	return &Denoising[B]{DecomposablePhysics: dp}
}
