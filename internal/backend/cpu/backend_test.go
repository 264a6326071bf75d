package cpu

import (
	"math"
	"testing"

	"github.com/glint-ml/glint/internal/tensor"
)

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func TestAddSameShape(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := backend.Add(a, b)

	expected := []float32{11, 22, 33, 44}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestAddInplaceWhenUnique(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2}, tensor.Shape{2})
	b := rawFromFloat32(t, []float32{3, 4}, tensor.Shape{2})

	result := backend.Add(a, b)
	if result != a {
		t.Error("expected inplace add to return the first operand")
	}
}

func TestAddNotInplaceWhenShared(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2}, tensor.Shape{2})
	b := rawFromFloat32(t, []float32{3, 4}, tensor.Shape{2})

	restore := a.ForceNonUnique()
	defer restore()

	result := backend.Add(a, b)
	if result == a {
		t.Error("add must not mutate a shared operand")
	}
	if a.AsFloat32()[0] != 1 {
		t.Error("operand was modified despite being shared")
	}
}

func TestSubBroadcast(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{10, 20, 30, 40, 50, 60}, tensor.Shape{2, 3})
	b := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})

	result := backend.Sub(a, b)

	expected := []float32{9, 18, 27, 39, 48, 57}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestMulBroadcastLeadingDim(t *testing.T) {
	backend := New()

	// [1, 2, 2] mask against [3, 2, 2] batch: typical masked-image product
	mask := rawFromFloat32(t, []float32{1, 0, 0, 1}, tensor.Shape{1, 2, 2})
	batch := rawFromFloat32(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}, tensor.Shape{3, 2, 2})

	result := backend.Mul(batch, mask)

	expected := []float32{1, 0, 0, 4, 5, 0, 0, 8, 9, 0, 0, 12}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestAddBroadcastFloat64(t *testing.T) {
	backend := New()

	a, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(a.AsFloat64(), []float64{1, 2, 3, 4})

	b, err := tensor.NewRaw(tensor.Shape{2, 1}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(b.AsFloat64(), []float64{10, 100})

	result := backend.Add(a, b)

	expected := []float64{11, 12, 103, 104}
	for i, v := range result.AsFloat64() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestDiv(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})
	b := rawFromFloat32(t, []float32{2, 4, 5}, tensor.Shape{3})

	result := backend.Div(a, b)

	expected := []float32{5, 5, 6}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestScalarOps(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{2, 4, 8}, tensor.Shape{3})

	if got := backend.MulScalar(x, float32(0.5)).AsFloat32(); got[2] != 4 {
		t.Errorf("MulScalar: %v", got)
	}
	if got := backend.AddScalar(x, float32(1)).AsFloat32(); got[0] != 3 {
		t.Errorf("AddScalar: %v", got)
	}
	if got := backend.SubScalar(x, float32(2)).AsFloat32(); got[0] != 0 {
		t.Errorf("SubScalar: %v", got)
	}
	if got := backend.DivScalar(x, float32(2)).AsFloat32(); got[1] != 2 {
		t.Errorf("DivScalar: %v", got)
	}
}

func TestScalarTypeConversion(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{3}, tensor.Shape{1})

	// float64 scalar against a float32 tensor must convert, not panic
	result := backend.MulScalar(x, 2.0)
	if result.AsFloat32()[0] != 6 {
		t.Errorf("MulScalar with float64 scalar: %v", result.AsFloat32()[0])
	}
}

func TestMatMul(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)

	expected := []float32{58, 64, 139, 154}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestReLU(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5})
	result := backend.ReLU(x)

	expected := []float32{0, 0, 0, 0.5, 2}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestTanh(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{-1, 0, 1}, tensor.Shape{3})
	result := backend.Tanh(x)

	got := result.AsFloat32()
	if got[1] != 0 {
		t.Errorf("tanh(0) = %v", got[1])
	}
	if math.Abs(float64(got[2])-math.Tanh(1)) > 1e-6 {
		t.Errorf("tanh(1) = %v, expected %v", got[2], math.Tanh(1))
	}
	if got[0] != -got[2] {
		t.Errorf("tanh should be odd: tanh(-1)=%v tanh(1)=%v", got[0], got[2])
	}
}

func TestSum(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{1, 2, 3, 4, 5}, tensor.Shape{5})
	result := backend.Sum(x)

	if !result.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("Sum shape = %v", result.Shape())
	}
	if result.AsFloat32()[0] != 15 {
		t.Errorf("Sum = %v, expected 15", result.AsFloat32()[0])
	}
}

func TestReshape(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := backend.Reshape(x, tensor.Shape{3, 2})

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Reshape shape = %v", result.Shape())
	}
	if result.AsFloat32()[5] != 6 {
		t.Errorf("reshape changed data: %v", result.AsFloat32())
	}
}

func TestTranspose(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := backend.Transpose(x)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape = %v", result.Shape())
	}

	expected := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestUnsqueezeSqueeze(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	u := backend.Unsqueeze(x, 0)
	if !u.Shape().Equal(tensor.Shape{1, 2, 2}) {
		t.Errorf("Unsqueeze shape = %v", u.Shape())
	}

	s := backend.Squeeze(u, 0)
	if !s.Shape().Equal(tensor.Shape{2, 2}) {
		t.Errorf("Squeeze shape = %v", s.Shape())
	}
}
