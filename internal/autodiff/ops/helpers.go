package ops

import (
	"fmt"

	"github.com/glint-ml/glint/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// If shapes already match, pass the gradient through a backend Reshape.
	// The copy prevents inplace operations from modifying shared gradients,
	// and when the backend is recording the identity lands on the tape, so
	// gradients stay differentiable for second-order passes. A bare Clone
	// would produce a tensor no recorded operation claims as its output,
	// silently ending the chain one level up.
	if gradShape.Equal(targetShape) {
		return backend.Reshape(grad, targetShape)
	}

	// Handle scalar target (empty shape)
	if len(targetShape) == 0 {
		return sumAll(grad, backend)
	}

	// NumPy broadcasting aligns shapes from the right.
	gradDims := len(gradShape)
	targetDims := len(targetShape)

	// If target has fewer dimensions, sum leading dimensions
	if targetDims < gradDims {
		dimsToSum := gradDims - targetDims
		result := grad
		for i := 0; i < dimsToSum; i++ {
			result = sumAlongDimension(result, 0, backend)
		}
		grad = result
		gradShape = grad.Shape()
	}

	// Now sum along dimensions where target is 1
	result := grad
	for i := 0; i < targetDims; i++ {
		if targetShape[i] == 1 && gradShape[i] > 1 {
			result = sumAlongDimension(result, i, backend)
		}
	}

	// Reshape if necessary to match target shape exactly
	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// sumAll sums all elements of a tensor to a scalar.
func sumAll(t *tensor.RawTensor, _ tensor.Backend) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{}, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumAll: failed to create result: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		var sum float32
		for _, v := range data {
			sum += v
		}
		result.AsFloat32()[0] = sum

	case tensor.Float64:
		data := t.AsFloat64()
		var sum float64
		for _, v := range data {
			sum += v
		}
		result.AsFloat64()[0] = sum

	default:
		panic(fmt.Sprintf("sumAll: unsupported dtype %s", t.DType()))
	}

	return result
}

// sumAlongDimension sums a tensor along the specified dimension,
// keeping the dimension with size 1.
func sumAlongDimension(t *tensor.RawTensor, dim int, _ tensor.Backend) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumAlongDimension: invalid dimension %d for shape %v", dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = 1

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumAlongDimension: failed to create result: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		sumFloat32AlongDimension(t.AsFloat32(), result.AsFloat32(), shape, dim)
	case tensor.Float64:
		sumFloat64AlongDimension(t.AsFloat64(), result.AsFloat64(), shape, dim)
	default:
		panic(fmt.Sprintf("sumAlongDimension: unsupported dtype %s", t.DType()))
	}

	return result
}

func sumFloat32AlongDimension(data, result []float32, shape tensor.Shape, dim int) {
	strides := shape.ComputeStrides()

	outShape := shape.Clone()
	outShape[dim] = 1
	outStrides := outShape.ComputeStrides()

	numElements := shape.NumElements()
	for i := 0; i < numElements; i++ {
		// Map the flat source index to the reduced index with dim pinned to 0
		reducedIdx := 0
		temp := i
		for d := 0; d < len(shape); d++ {
			coord := temp / strides[d]
			temp %= strides[d]
			if d != dim {
				reducedIdx += coord * outStrides[d]
			}
		}
		result[reducedIdx] += data[i]
	}
}

func sumFloat64AlongDimension(data, result []float64, shape tensor.Shape, dim int) {
	strides := shape.ComputeStrides()

	outShape := shape.Clone()
	outShape[dim] = 1
	outStrides := outShape.ComputeStrides()

	numElements := shape.NumElements()
	for i := 0; i < numElements; i++ {
		reducedIdx := 0
		temp := i
		for d := 0; d < len(shape); d++ {
			coord := temp / strides[d]
			temp %= strides[d]
			if d != dim {
				reducedIdx += coord * outStrides[d]
			}
		}
		result[reducedIdx] += data[i]
	}
}

// negateGradient returns -grad.
func negateGradient(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(grad, -1.0)
}

// onesLike creates a raw tensor of ones with the same shape and dtype as t.
func onesLike(t *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	ones, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("onesLike: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := ones.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := ones.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("onesLike: unsupported dtype %s", t.DType()))
	}

	return ones
}
