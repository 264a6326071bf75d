package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations naively for correctness verification.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// elementWise performs element-wise operations with broadcasting.
func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	numElements := outShape.NumElements()

	// Convert to float64 for generic processing
	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := m.toFloat64Slice(result)

	for i := 0; i < numElements; i++ {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())

		resultData[i] = op(aData[aIdx], bData[bIdx])
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// MulScalar multiplies each element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v * s })
}

// AddScalar adds a scalar to each element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from each element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v - s })
}

// DivScalar divides each element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v / s })
}

// ReLU applies max(0, x) element-wise.
func (m *MockBackend) ReLU(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return math.Max(0, v) })
}

// Tanh applies the hyperbolic tangent element-wise.
func (m *MockBackend) Tanh(x *RawTensor) *RawTensor {
	return m.unary(x, math.Tanh)
}

func (m *MockBackend) unary(x *RawTensor, op func(float64) float64) *RawTensor {
	result, err := NewRaw(x.Shape(), x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	xData := m.toFloat64Slice(x)
	resultData := m.toFloat64Slice(result)
	for i, v := range xData {
		resultData[i] = op(v)
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Sum reduces all elements to a scalar tensor.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result, err := NewRaw(Shape{1}, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	total := 0.0
	for _, v := range m.toFloat64Slice(x) {
		total += v
	}

	m.fromFloat64Slice([]float64{total}, result)
	return result
}

// MatMul performs matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	// Only support 2D for now
	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul only supports 2D tensors in mock backend")
	}

	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}

	M, K := aShape[0], aShape[1]
	N := bShape[1]

	outShape := Shape{M, N}
	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := m.toFloat64Slice(result)

	// Naive matrix multiplication
	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			sum := 0.0
			for k := 0; k < K; k++ {
				sum += aData[i*K+k] * bData[k*N+j]
			}
			resultData[i*N+j] = sum
		}
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Conv2D performs 2D convolution (naive implementation for testing).
func (m *MockBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 || len(kernelShape) != 4 {
		panic("Conv2D requires 4D tensors [N,C,H,W]")
	}

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	KH := kernelShape[2]
	KW := kernelShape[3]

	if CIn != kernelShape[1] {
		panic(fmt.Sprintf("Conv2D: input channels %d != kernel channels %d", CIn, kernelShape[1]))
	}

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1

	output, err := NewRaw(Shape{N, COut, HOut, WOut}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	inputData := m.toFloat64Slice(input)
	kernelData := m.toFloat64Slice(kernel)
	outputData := m.toFloat64Slice(output)

	// Naive convolution (direct implementation)
	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					sum := 0.0

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							for kw := 0; kw < KW; kw++ {
								h := outH*stride - padding + kh
								w := outW*stride - padding + kw

								// Check bounds (zero padding)
								if h >= 0 && h < H && w >= 0 && w < W {
									inputIdx := n*CIn*H*W + cIn*H*W + h*W + w
									kernelIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
									sum += inputData[inputIdx] * kernelData[kernelIdx]
								}
							}
						}
					}

					outputIdx := n*COut*HOut*WOut + cOut*HOut*WOut + outH*WOut + outW
					outputData[outputIdx] = sum
				}
			}
		}
	}

	m.fromFloat64Slice(outputData, output)
	return output
}

// ConvTranspose2D scatters x back through the kernel (naive adjoint of Conv2D).
func (m *MockBackend) ConvTranspose2D(x, kernel *RawTensor, stride, padding, outH, outW int) *RawTensor {
	xShape := x.Shape()
	kernelShape := kernel.Shape()

	if len(xShape) != 4 || len(kernelShape) != 4 {
		panic("ConvTranspose2D requires 4D tensors [N,C,H,W]")
	}

	N := xShape[0]
	COut := xShape[1]
	HIn := xShape[2]
	WIn := xShape[3]
	CIn := kernelShape[1]
	KH := kernelShape[2]
	KW := kernelShape[3]

	output, err := NewRaw(Shape{N, CIn, outH, outW}, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	xData := m.toFloat64Slice(x)
	kernelData := m.toFloat64Slice(kernel)
	outputData := m.toFloat64Slice(output)

	for n := 0; n < N; n++ {
		for cOut := 0; cOut < COut; cOut++ {
			for hIn := 0; hIn < HIn; hIn++ {
				for wIn := 0; wIn < WIn; wIn++ {
					v := xData[n*COut*HIn*WIn+cOut*HIn*WIn+hIn*WIn+wIn]

					for cIn := 0; cIn < CIn; cIn++ {
						for kh := 0; kh < KH; kh++ {
							for kw := 0; kw < KW; kw++ {
								h := hIn*stride - padding + kh
								w := wIn*stride - padding + kw

								if h >= 0 && h < outH && w >= 0 && w < outW {
									outputIdx := n*CIn*outH*outW + cIn*outH*outW + h*outW + w
									kernelIdx := cOut*CIn*KH*KW + cIn*KH*KW + kh*KW + kw
									outputData[outputIdx] += v * kernelData[kernelIdx]
								}
							}
						}
					}
				}
			}
		}
	}

	m.fromFloat64Slice(outputData, output)
	return output
}

// Conv2DKernelBackward computes the kernel gradient of Conv2D.
func (m *MockBackend) Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	KH := kernelShape[2]
	KW := kernelShape[3]
	HOut := gradShape[2]
	WOut := gradShape[3]

	result, err := NewRaw(kernelShape.Clone(), kernel.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	inputData := m.toFloat64Slice(input)
	gradData := m.toFloat64Slice(grad)
	resultData := m.toFloat64Slice(result)

	for cOut := 0; cOut < COut; cOut++ {
		for cIn := 0; cIn < CIn; cIn++ {
			for kh := 0; kh < KH; kh++ {
				for kw := 0; kw < KW; kw++ {
					sum := 0.0
					for n := 0; n < N; n++ {
						for outH := 0; outH < HOut; outH++ {
							for outW := 0; outW < WOut; outW++ {
								h := outH*stride - padding + kh
								w := outW*stride - padding + kw
								if h >= 0 && h < H && w >= 0 && w < W {
									inputIdx := n*CIn*H*W + cIn*H*W + h*W + w
									gradIdx := n*COut*HOut*WOut + cOut*HOut*WOut + outH*WOut + outW
									sum += inputData[inputIdx] * gradData[gradIdx]
								}
							}
						}
					}
					resultData[cOut*CIn*KH*KW+cIn*KH*KW+kh*KW+kw] = sum
				}
			}
		}
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Reshape changes tensor shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}

	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cannot reshape tensor with %d elements to shape %v (%d elements)",
			t.NumElements(), newShape, newShape.NumElements()))
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	copy(result.Data(), t.Data())
	return result
}

// Transpose transposes tensor dimensions.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()

	// Default: reverse all dimensions
	if len(axes) == 0 {
		axes = make([]int, len(shape))
		for i := range axes {
			axes[i] = len(shape) - 1 - i
		}
	}

	if len(axes) != len(shape) {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), len(shape)))
	}

	newShape := make(Shape, len(shape))
	for i, axis := range axes {
		if axis < 0 || axis >= len(shape) {
			panic(fmt.Sprintf("axis %d out of bounds for tensor with %d dimensions", axis, len(shape)))
		}
		newShape[i] = shape[axis]
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	tData := m.toFloat64Slice(t)
	resultData := m.toFloat64Slice(result)

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for i := 0; i < t.NumElements(); i++ {
		indices := make([]int, len(shape))
		temp := i
		for j := 0; j < len(shape); j++ {
			indices[j] = temp / oldStrides[j]
			temp %= oldStrides[j]
		}

		permuted := make([]int, len(indices))
		for j, axis := range axes {
			permuted[j] = indices[axis]
		}

		newIdx := 0
		for j, idx := range permuted {
			newIdx += idx * newStrides[j]
		}

		resultData[newIdx] = tData[i]
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Unsqueeze inserts a size-1 dimension at dim.
func (m *MockBackend) Unsqueeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("unsqueeze dim %d out of range for %dD tensor", dim, len(shape)))
	}

	newShape := make(Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return m.Reshape(x, newShape)
}

// Squeeze removes a size-1 dimension at dim.
func (m *MockBackend) Squeeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("squeeze dim %d out of range for %dD tensor", dim, len(shape)))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("cannot squeeze dimension %d of size %d", dim, shape[dim]))
	}

	newShape := make(Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return m.Reshape(x, newShape)
}

// Helper functions

func (m *MockBackend) toFloat64Slice(t *RawTensor) []float64 {
	switch t.DType() {
	case Float32:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Float64:
		return t.AsFloat64()
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
}

func (m *MockBackend) fromFloat64Slice(src []float64, t *RawTensor) {
	switch t.DType() {
	case Float32:
		dst := t.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case Float64:
		copy(t.AsFloat64(), src)
	}
}

func (m *MockBackend) broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	// Convert flat index to multi-dimensional indices in output shape
	outStrides := outShape.ComputeStrides()
	indices := make([]int, len(outShape))

	temp := flatIdx
	for i := 0; i < len(outShape); i++ {
		indices[i] = temp / outStrides[i]
		temp %= outStrides[i]
	}

	// Map to input shape (accounting for broadcasting)
	inStrides := inShape.ComputeStrides()
	inIdx := 0

	offset := len(outShape) - len(inShape)
	for i := 0; i < len(inShape); i++ {
		outDimIdx := indices[offset+i]
		inDim := inShape[i]

		// If input dimension is 1, always use index 0 (broadcasting)
		if inDim == 1 {
			outDimIdx = 0
		}

		inIdx += outDimIdx * inStrides[i]
	}

	return inIdx
}

func scalarToFloat64(scalar any) float64 {
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
