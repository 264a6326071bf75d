package solver

import (
	"github.com/chewxy/math32"

	"github.com/glint-ml/glint/internal/tensor"
)

// MSE computes the mean squared error between two tensors of equal
// shape. Panics on shape mismatch.
func MSE[B tensor.Backend](x, ref *tensor.Tensor[float32, B]) float32 {
	if !x.Shape().Equal(ref.Shape()) {
		panic("solver: MSE shape mismatch")
	}

	var sum float32
	xData := x.Data()
	refData := ref.Data()
	for i := range xData {
		d := xData[i] - refData[i]
		sum += d * d
	}
	return sum / float32(len(xData))
}

// PSNR computes the peak signal-to-noise ratio in decibels:
//
//	PSNR = 10 log10(maxPixel^2 / MSE)
//
// Identical tensors yield +Inf.
func PSNR[B tensor.Backend](x, ref *tensor.Tensor[float32, B], maxPixel float32) float32 {
	mse := MSE(x, ref)
	if mse == 0 {
		return math32.Inf(1)
	}
	return 10 * math32.Log10(maxPixel*maxPixel/mse)
}
