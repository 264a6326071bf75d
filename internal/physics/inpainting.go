package physics

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/glint-ml/glint/internal/tensor"
)

// Inpainting observes an image through a binary pixel mask:
//
//	y = m * x
//
// where m has ones at observed pixels and zeros at missing ones. It is a
// decomposable operator with identity U and V, so the adjoint, the
// pseudo-inverse and ProxL2 come for free from DecomposablePhysics.
type Inpainting[B tensor.Backend] struct {
	*DecomposablePhysics[B]

	pixelwise bool
}

// InpaintingConfig configures an Inpainting operator.
//
// Exactly one of Mask and MaskRate selects the mask. A non-nil Mask is
// used verbatim. Otherwise a random binary mask over TensorSize is
// drawn, keeping each entry with probability MaskRate; with Pixelwise
// set, all channels of a pixel share the same fate. Either way a leading
// singleton batch dimension is added so the mask broadcasts over
// batched inputs.
type InpaintingConfig[B tensor.Backend] struct {
	TensorSize tensor.Shape
	Mask       *tensor.Tensor[float32, B]
	MaskRate   float64
	Pixelwise  bool
	Noise      NoiseModel[B]
	Src        rand.Source
}

// NewInpainting creates an inpainting operator.
func NewInpainting[B tensor.Backend](cfg InpaintingConfig[B], backend B) *Inpainting[B] {
	mask := cfg.Mask
	if mask == nil {
		mask = randomMask[B](cfg.TensorSize, cfg.MaskRate, cfg.Pixelwise, cfg.Src, backend)
	}
	mask = mask.Unsqueeze(0)

	dp := NewDecomposablePhysics(DecomposableConfig[B]{
		Mask:  mask,
		Noise: cfg.Noise,
	}, backend)

	return &Inpainting[B]{
		DecomposablePhysics: dp,
		pixelwise:           cfg.Pixelwise,
	}
}

// Pixelwise reports whether channels share the mask per pixel.
func (p *Inpainting[B]) Pixelwise() bool {
	return p.pixelwise
}

// randomMask draws a binary mask over size, an unbatched (C, H, W)
// shape. Each entry survives with probability rate. In pixelwise mode
// the first channel's draw decides for all channels at that pixel.
func randomMask[B tensor.Backend](size tensor.Shape, rate float64, pixelwise bool, src rand.Source, backend B) *tensor.Tensor[float32, B] {
	if rate < 0 || rate > 1 {
		panic("physics: inpainting mask rate must be in [0, 1]")
	}
	if pixelwise && len(size) != 3 {
		panic("physics: pixelwise masks require a (C, H, W) tensor size")
	}

	mask := tensor.Ones[float32](size, backend)
	data := mask.Data()

	dist := distuv.Uniform{Min: 0, Max: 1, Src: src}
	aux := make([]float64, size.NumElements())
	for i := range aux {
		aux[i] = dist.Rand()
	}

	if !pixelwise {
		for i := range data {
			if aux[i] > rate {
				data[i] = 0
			}
		}
		return mask
	}

	channels, height, width := size[0], size[1], size[2]
	for h := 0; h < height; h++ {
		for w := 0; w < width; w++ {
			if aux[h*width+w] > rate {
				for c := 0; c < channels; c++ {
					data[c*height*width+h*width+w] = 0
				}
			}
		}
	}
	return mask
}
