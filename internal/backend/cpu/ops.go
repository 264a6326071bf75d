package cpu

import (
	"fmt"

	"github.com/glint-ml/glint/internal/tensor"
)

// spanDispatch runs the span kernel matching the operand dtype.
// dst, a and b must have the same number of elements; dst may alias a.
func spanDispatch(dst, a, b *tensor.RawTensor, f32 func(dst, a, b []float32), f64 func(dst, a, b []float64)) {
	switch dst.DType() {
	case tensor.Float32:
		f32(dst.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		f64(dst.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	default:
		panic(fmt.Sprintf("cpu: unsupported dtype %s", dst.DType()))
	}
}

// broadcastDispatch runs the broadcasting kernel matching the operand dtype.
func broadcastDispatch(dst, a, b *tensor.RawTensor, outShape tensor.Shape,
	f32 func(float32, float32) float32, f64 func(float64, float64) float64) {
	switch dst.DType() {
	case tensor.Float32:
		zipBroadcast(dst.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, f32)
	case tensor.Float64:
		zipBroadcast(dst.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, f64)
	default:
		panic(fmt.Sprintf("cpu: unsupported dtype %s", dst.DType()))
	}
}

// Inplace variants require a.Shape().Equal(b.Shape()) && a.IsUnique().

func addInplace(a, b *tensor.RawTensor) {
	spanDispatch(a, a, b, addSpan[float32], addSpan[float64])
}

func subInplace(a, b *tensor.RawTensor) {
	spanDispatch(a, a, b, subSpan[float32], subSpan[float64])
}

func mulInplace(a, b *tensor.RawTensor) {
	spanDispatch(a, a, b, mulSpan[float32], mulSpan[float64])
}

func divInplace(a, b *tensor.RawTensor) {
	spanDispatch(a, a, b, divSpan[float32], divSpan[float64])
}

// Vectorized variants require a.Shape().Equal(b.Shape()).

func addVectorized(result, a, b *tensor.RawTensor) {
	spanDispatch(result, a, b, addSpan[float32], addSpan[float64])
}

func subVectorized(result, a, b *tensor.RawTensor) {
	spanDispatch(result, a, b, subSpan[float32], subSpan[float64])
}

func mulVectorized(result, a, b *tensor.RawTensor) {
	spanDispatch(result, a, b, mulSpan[float32], mulSpan[float64])
}

func divVectorized(result, a, b *tensor.RawTensor) {
	spanDispatch(result, a, b, divSpan[float32], divSpan[float64])
}

// Broadcasting variants handle mismatched but compatible shapes.

func addWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	broadcastDispatch(result, a, b, outShape, scalarAdd[float32], scalarAdd[float64])
}

func subWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	broadcastDispatch(result, a, b, outShape, scalarSub[float32], scalarSub[float64])
}

func mulWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	broadcastDispatch(result, a, b, outShape, scalarMul[float32], scalarMul[float64])
}

func divWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	broadcastDispatch(result, a, b, outShape, scalarDiv[float32], scalarDiv[float64])
}

func transposeData(result, src *tensor.RawTensor, axes []int) {
	switch src.DType() {
	case tensor.Float32:
		transposeSpan(result.AsFloat32(), src.AsFloat32(), src.Shape(), axes)
	case tensor.Float64:
		transposeSpan(result.AsFloat64(), src.AsFloat64(), src.Shape(), axes)
	default:
		panic(fmt.Sprintf("cpu: unsupported dtype %s", src.DType()))
	}
}
