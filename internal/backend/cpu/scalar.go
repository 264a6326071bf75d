package cpu

import (
	"fmt"

	"github.com/glint-ml/glint/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("mulScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		mulScalarFloat32(result, x, scalarAsFloat32(scalar))
	case tensor.Float64:
		mulScalarFloat64(result, x, scalarAsFloat64(scalar))
	default:
		panic(fmt.Sprintf("mulScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("addScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		addScalarFloat32(result, x, scalarAsFloat32(scalar))
	case tensor.Float64:
		addScalarFloat64(result, x, scalarAsFloat64(scalar))
	default:
		panic(fmt.Sprintf("addScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// SubScalar subtracts a scalar value from each element of the tensor.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("subScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		subScalarFloat32(result, x, scalarAsFloat32(scalar))
	case tensor.Float64:
		subScalarFloat64(result, x, scalarAsFloat64(scalar))
	default:
		panic(fmt.Sprintf("subScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// DivScalar divides each element of the tensor by a scalar value.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("divScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		divScalarFloat32(result, x, scalarAsFloat32(scalar))
	case tensor.Float64:
		divScalarFloat64(result, x, scalarAsFloat64(scalar))
	default:
		panic(fmt.Sprintf("divScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// scalarAsFloat32 converts any supported scalar type to float32.
func scalarAsFloat32(scalar any) float32 {
	switch s := scalar.(type) {
	case float32:
		return s
	case float64:
		return float32(s)
	case int:
		return float32(s)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}

// scalarAsFloat64 converts any supported scalar type to float64.
func scalarAsFloat64(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}

// ============================================================================
// Float32 implementations
// ============================================================================

func mulScalarFloat32(result, x *tensor.RawTensor, scalar float32) {
	xData := x.AsFloat32()
	resultData := result.AsFloat32()

	for i := range resultData {
		resultData[i] = xData[i] * scalar
	}
}

func addScalarFloat32(result, x *tensor.RawTensor, scalar float32) {
	xData := x.AsFloat32()
	resultData := result.AsFloat32()

	for i := range resultData {
		resultData[i] = xData[i] + scalar
	}
}

func subScalarFloat32(result, x *tensor.RawTensor, scalar float32) {
	xData := x.AsFloat32()
	resultData := result.AsFloat32()

	for i := range resultData {
		resultData[i] = xData[i] - scalar
	}
}

func divScalarFloat32(result, x *tensor.RawTensor, scalar float32) {
	xData := x.AsFloat32()
	resultData := result.AsFloat32()

	for i := range resultData {
		resultData[i] = xData[i] / scalar
	}
}

// ============================================================================
// Float64 implementations
// ============================================================================

func mulScalarFloat64(result, x *tensor.RawTensor, scalar float64) {
	xData := x.AsFloat64()
	resultData := result.AsFloat64()

	for i := range resultData {
		resultData[i] = xData[i] * scalar
	}
}

func addScalarFloat64(result, x *tensor.RawTensor, scalar float64) {
	xData := x.AsFloat64()
	resultData := result.AsFloat64()

	for i := range resultData {
		resultData[i] = xData[i] + scalar
	}
}

func subScalarFloat64(result, x *tensor.RawTensor, scalar float64) {
	xData := x.AsFloat64()
	resultData := result.AsFloat64()

	for i := range resultData {
		resultData[i] = xData[i] - scalar
	}
}

func divScalarFloat64(result, x *tensor.RawTensor, scalar float64) {
	xData := x.AsFloat64()
	resultData := result.AsFloat64()

	for i := range resultData {
		resultData[i] = xData[i] / scalar
	}
}
