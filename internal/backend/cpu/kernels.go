package cpu

import (
	"github.com/glint-ml/glint/internal/tensor"
)

// Element-wise kernels shared by the float32 and float64 paths. The
// arithmetic dtype set is floating point only; bool and float16 tensors
// are storage formats and never reach these kernels.

type floatKind interface {
	float32 | float64
}

func scalarAdd[F floatKind](x, y F) F { return x + y }
func scalarSub[F floatKind](x, y F) F { return x - y }
func scalarMul[F floatKind](x, y F) F { return x * y }
func scalarDiv[F floatKind](x, y F) F { return x / y }

// addSpan computes dst = a + b over equal-length spans. dst may alias a,
// which is how the inplace fast path reuses these kernels.
func addSpan[F floatKind](dst, a, b []F) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

func subSpan[F floatKind](dst, a, b []F) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

func mulSpan[F floatKind](dst, a, b []F) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func divSpan[F floatKind](dst, a, b []F) {
	for i := range dst {
		dst[i] = a[i] / b[i]
	}
}

// broadcastStrides computes the strides of inShape viewed as outShape.
// Dimensions that are broadcast (size 1 or padded on the left) get
// stride 0 so the same element is revisited.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	offset := len(outShape) - len(inShape)
	orig := inShape.ComputeStrides()

	strides := make([]int, len(outShape))
	for d := range outShape {
		in := d - offset
		if in >= 0 && inShape[in] != 1 {
			strides[d] = orig[in]
		}
	}
	return strides
}

// zipBroadcast computes dst[i] = op(a[ai], b[bi]) where ai and bi follow
// NumPy broadcasting of aShape and bShape to outShape.
func zipBroadcast[F floatKind](dst, a, b []F, aShape, bShape, outShape tensor.Shape, op func(F, F) F) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		rem := i
		ai, bi := 0, 0
		for d := range outStrides {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			ai += coord * aStrides[d]
			bi += coord * bStrides[d]
		}
		dst[i] = op(a[ai], b[bi])
	}
}

// transposeSpan scatters src into dst under the axis permutation. The
// destination stride contributed by each source dimension is precomputed
// so the inner loop stays allocation free.
func transposeSpan[F floatKind](dst, src []F, shape tensor.Shape, axes []int) {
	srcStrides := shape.ComputeStrides()

	dstShape := make(tensor.Shape, len(shape))
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	perm := make([]int, len(shape))
	for dstDim, srcDim := range axes {
		perm[srcDim] = dstStrides[dstDim]
	}

	for i := range src {
		rem := i
		dstIdx := 0
		for d := range srcStrides {
			dstIdx += (rem / srcStrides[d]) * perm[d]
			rem %= srcStrides[d]
		}
		dst[dstIdx] = src[i]
	}
}
