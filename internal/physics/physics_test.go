package physics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/glint-ml/glint/internal/backend/cpu"
	"github.com/glint-ml/glint/internal/physics"
	"github.com/glint-ml/glint/internal/tensor"
)

func TestInpainting_LiteralMask(t *testing.T) {
	backend := cpu.New()

	// Keep only the last row of a 3x3 image.
	mask := tensor.Zeros[float32](tensor.Shape{1, 3, 3}, backend)
	for w := 0; w < 3; w++ {
		mask.Set(1, 0, 2, w)
	}

	op := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		Mask: mask,
	}, backend)

	// The stored mask gains a leading batch dimension.
	require.True(t, op.Mask().Shape().Equal(tensor.Shape{1, 1, 3, 3}))

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3}, backend)
	require.NoError(t, err)

	y := op.A(x)
	want := []float32{0, 0, 0, 0, 0, 0, 7, 8, 9}
	assert.Equal(t, want, y.Data())
}

func TestInpainting_MaskRateExtremes(t *testing.T) {
	backend := cpu.New()
	src := rand.NewSource(7)

	allKept := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		TensorSize: tensor.Shape{1, 4, 4},
		MaskRate:   1,
		Src:        src,
	}, backend)
	for i, v := range allKept.Mask().Data() {
		assert.Equal(t, float32(1), v, "mask[%d]", i)
	}

	allDropped := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		TensorSize: tensor.Shape{1, 4, 4},
		MaskRate:   0,
		Src:        src,
	}, backend)
	for i, v := range allDropped.Mask().Data() {
		assert.Equal(t, float32(0), v, "mask[%d]", i)
	}
}

func TestInpainting_PixelwiseSharesChannelFate(t *testing.T) {
	backend := cpu.New()
	src := rand.NewSource(21)

	op := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		TensorSize: tensor.Shape{3, 8, 8},
		MaskRate:   0.5,
		Pixelwise:  true,
		Src:        src,
	}, backend)

	mask := op.Mask()
	require.True(t, mask.Shape().Equal(tensor.Shape{1, 3, 8, 8}))
	assert.True(t, op.Pixelwise())

	for h := 0; h < 8; h++ {
		for w := 0; w < 8; w++ {
			first := mask.At(0, 0, h, w)
			for c := 1; c < 3; c++ {
				assert.Equal(t, first, mask.At(0, c, h, w), "pixel (%d,%d) channel %d", h, w, c)
			}
		}
	}
}

func TestInpainting_InvalidConfig(t *testing.T) {
	backend := cpu.New()

	assert.Panics(t, func() {
		physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
			TensorSize: tensor.Shape{1, 4, 4},
			MaskRate:   1.5,
		}, backend)
	})

	assert.Panics(t, func() {
		physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
			TensorSize: tensor.Shape{4, 4},
			MaskRate:   0.5,
			Pixelwise:  true,
		}, backend)
	})
}

func TestInpainting_ADaggerRestoresKeptPixels(t *testing.T) {
	backend := cpu.New()

	mask, err := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{1, 2, 2}, backend)
	require.NoError(t, err)

	op := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		Mask: mask,
	}, backend)

	x, err := tensor.FromSlice([]float32{3, 5, 7, 9}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	// For a binary mask the pseudo-inverse equals the adjoint, and
	// A^+ A x keeps observed pixels and zeroes the rest.
	restored := op.ADagger(op.A(x))
	assert.Equal(t, []float32{3, 0, 0, 9}, restored.Data())

	adj := op.AAdjoint(op.A(x))
	assert.Equal(t, restored.Data(), adj.Data())
}

func TestDecomposable_ADaggerInvertsNonbinaryMask(t *testing.T) {
	backend := cpu.New()

	mask, err := tensor.FromSlice([]float32{2, 0, 0.5, 4}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	op := physics.NewDecomposablePhysics(physics.DecomposableConfig[*cpu.CPUBackend]{
		Mask: mask,
	}, backend)

	x, err := tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	// A^+ A x recovers x wherever the mask is nonzero.
	y := op.ADagger(op.A(x))
	want := []float32{1, 0, 1, 1}
	for i := range want {
		assert.InDelta(t, float64(want[i]), float64(y.Data()[i]), 1e-6, "y[%d]", i)
	}
}

func TestDecomposable_ProxL2ClosedForm(t *testing.T) {
	backend := cpu.New()

	mask, err := tensor.FromSlice([]float32{1, 0}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	op := physics.NewDecomposablePhysics(physics.DecomposableConfig[*cpu.CPUBackend]{
		Mask: mask,
	}, backend)

	z, err := tensor.FromSlice([]float32{4, 6}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{2, 100}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	gamma := float32(3)

	// With identity factors: prox = (gamma*m*y + z) / (gamma*m^2 + 1).
	// Observed entry: (3*2 + 4) / 4 = 2.5. Missing entry: z unchanged.
	got := op.ProxL2(z, y, gamma)
	assert.InDelta(t, 2.5, float64(got.Data()[0]), 1e-6)
	assert.InDelta(t, 6.0, float64(got.Data()[1]), 1e-6)
}

func TestDecomposable_NoiseStaysInRange(t *testing.T) {
	backend := cpu.New()

	mask, err := tensor.FromSlice([]float32{1, 0, 1}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	// Constant additive noise: uniform on [1, 1).
	op := physics.NewDecomposablePhysics(physics.DecomposableConfig[*cpu.CPUBackend]{
		Mask:  mask,
		Noise: physics.NewUniformNoise[*cpu.CPUBackend](1, 1, nil),
	}, backend)

	y, err := tensor.FromSlice([]float32{2, 2, 2}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	// The perturbed measurement is masked back into the range of A, so
	// missing entries stay zero regardless of the noise.
	got := op.Noise(y)
	assert.InDelta(t, 3.0, float64(got.Data()[0]), 1e-6)
	assert.InDelta(t, 0.0, float64(got.Data()[1]), 1e-6)
	assert.InDelta(t, 3.0, float64(got.Data()[2]), 1e-6)
}

func TestInpainting_ForwardAppliesMaskThenNoise(t *testing.T) {
	backend := cpu.New()
	src := rand.NewSource(3)

	mask, err := tensor.FromSlice([]float32{1, 1, 0, 1}, tensor.Shape{1, 2, 2}, backend)
	require.NoError(t, err)

	op := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		Mask:  mask,
		Noise: physics.NewGaussianNoise[*cpu.CPUBackend](0.1, src),
	}, backend)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	y := op.Forward(x)
	require.True(t, y.Shape().Equal(x.Shape()))

	// The masked-out pixel carries no signal and no noise.
	assert.Equal(t, float32(0), y.Data()[2])

	// Observed pixels are close to the clean measurement.
	clean := op.A(x)
	for _, i := range []int{0, 1, 3} {
		assert.InDelta(t, float64(clean.Data()[i]), float64(y.Data()[i]), 1.0, "y[%d]", i)
	}
}

func TestDenoising_IdentityOperator(t *testing.T) {
	backend := cpu.New()

	op := physics.NewDenoising[*cpu.CPUBackend](nil, backend)

	x, err := tensor.FromSlice([]float32{1, -2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	assert.Equal(t, x.Data(), op.A(x).Data())
	assert.Equal(t, x.Data(), op.Forward(x).Data())
	assert.Equal(t, x.Data(), op.ADagger(x).Data())
}

func TestDenoising_GaussianNoiseLevel(t *testing.T) {
	backend := cpu.New()
	src := rand.NewSource(99)

	sigma := 0.5
	op := physics.NewDenoising[*cpu.CPUBackend](
		physics.NewGaussianNoise[*cpu.CPUBackend](sigma, src), backend)

	x := tensor.Zeros[float32](tensor.Shape{1, 1, 32, 32}, backend)
	y := op.Forward(x)

	// Empirical variance of the residual should be near sigma^2.
	var sumSq float64
	for _, v := range y.Data() {
		sumSq += float64(v) * float64(v)
	}
	variance := sumSq / float64(y.NumElements())
	assert.InDelta(t, sigma*sigma, variance, 0.05)
}

func TestPoissonNoise_ZeroIntensity(t *testing.T) {
	backend := cpu.New()

	noise := physics.NewPoissonNoise[*cpu.CPUBackend](0.5, rand.NewSource(1))

	x := tensor.Zeros[float32](tensor.Shape{4}, backend)
	y := noise.Apply(x)

	for i, v := range y.Data() {
		assert.Equal(t, float32(0), v, "y[%d]", i)
	}
	assert.Panics(t, func() {
		physics.NewPoissonNoise[*cpu.CPUBackend](0, nil)
	})
}

func TestDecomposable_StateDictRoundtrip(t *testing.T) {
	backend := cpu.New()
	src := rand.NewSource(11)

	op1 := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		TensorSize: tensor.Shape{1, 4, 4},
		MaskRate:   0.5,
		Src:        src,
	}, backend)

	op2 := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		TensorSize: tensor.Shape{1, 4, 4},
		MaskRate:   1,
	}, backend)

	require.NoError(t, op2.LoadStateDict(op1.StateDict()))
	assert.Equal(t, op1.Mask().Data(), op2.Mask().Data())

	// Shape mismatch is rejected.
	op3 := physics.NewInpainting(physics.InpaintingConfig[*cpu.CPUBackend]{
		TensorSize: tensor.Shape{1, 2, 2},
		MaskRate:   1,
	}, backend)
	assert.Error(t, op3.LoadStateDict(op1.StateDict()))

	// Missing mask is rejected.
	assert.Error(t, op3.LoadStateDict(map[string]*tensor.RawTensor{}))
}
