package tensor

import (
	"math"
	"testing"
)

func assertEqualShape(t *testing.T, want, got Shape, msg string) {
	t.Helper()
	if !want.Equal(got) {
		t.Errorf("%s: expected shape %v, got %v", msg, want, got)
	}
}

func assertClose(t *testing.T, want, got, tol float64, msg string) {
	t.Helper()
	if math.Abs(want-got) > tol {
		t.Errorf("%s: expected %v, got %v", msg, want, got)
	}
}

func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()

	tr, err := FromSlice[float32]([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	assertEqualShape(t, Shape{2, 3}, tr.Shape(), "FromSlice shape")

	if tr.At(0, 0) != 1 || tr.At(1, 2) != 6 {
		t.Errorf("unexpected values: At(0,0)=%v At(1,2)=%v", tr.At(0, 0), tr.At(1, 2))
	}
}

func TestFromSliceShapeMismatch(t *testing.T) {
	backend := NewMockBackend()

	_, err := FromSlice[float32]([]float32{1, 2, 3}, Shape{2, 2}, backend)
	if err == nil {
		t.Error("expected error for mismatched shape and data length")
	}
}

func TestSetAndAt(t *testing.T) {
	backend := NewMockBackend()

	tr := Zeros[float64](Shape{3, 3}, backend)
	tr.Set(2.5, 1, 2)

	if tr.At(1, 2) != 2.5 {
		t.Errorf("expected 2.5, got %v", tr.At(1, 2))
	}
	if tr.At(2, 1) != 0 {
		t.Errorf("expected 0 at untouched index, got %v", tr.At(2, 1))
	}
}

func TestItem(t *testing.T) {
	backend := NewMockBackend()

	tr := Full[float32](Shape{1}, 7.0, backend)
	if tr.Item() != 7.0 {
		t.Errorf("expected 7.0, got %v", tr.Item())
	}
}

func TestItemPanicsOnNonScalar(t *testing.T) {
	backend := NewMockBackend()
	tr := Zeros[float32](Shape{2, 2}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for Item() on non-scalar tensor")
		}
	}()
	_ = tr.Item()
}

func TestAddBroadcast(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice[float32]([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	b, _ := FromSlice[float32]([]float32{10, 20, 30}, Shape{3}, backend)

	result := a.Add(b)

	assertEqualShape(t, Shape{2, 3}, result.Shape(), "broadcast add shape")

	expected := []float32{11, 22, 33, 14, 25, 36}
	for i, v := range result.Data() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestMulElementwise(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice[float64]([]float64{1, 2, 3, 4}, Shape{2, 2}, backend)
	b, _ := FromSlice[float64]([]float64{5, 6, 7, 8}, Shape{2, 2}, backend)

	result := a.Mul(b)

	expected := []float64{5, 12, 21, 32}
	for i, v := range result.Data() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestScalarOps(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice[float32]([]float32{2, 4, 6}, Shape{3}, backend)

	if got := a.MulScalar(0.5).Data(); got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("MulScalar result: %v", got)
	}
	if got := a.AddScalar(1).Data(); got[0] != 3 || got[2] != 7 {
		t.Errorf("AddScalar result: %v", got)
	}
	if got := a.SubScalar(2).Data(); got[0] != 0 || got[2] != 4 {
		t.Errorf("SubScalar result: %v", got)
	}
	if got := a.DivScalar(2).Data(); got[0] != 1 || got[2] != 3 {
		t.Errorf("DivScalar result: %v", got)
	}
}

func TestSum(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice[float32]([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)
	s := a.Sum()

	if s.NumElements() != 1 {
		t.Fatalf("Sum should produce a scalar, got shape %v", s.Shape())
	}
	if s.Item() != 10 {
		t.Errorf("Sum = %v, expected 10", s.Item())
	}
}

func TestMatMul(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice[float32]([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	b, _ := FromSlice[float32]([]float32{7, 8, 9, 10, 11, 12}, Shape{3, 2}, backend)

	result := a.MatMul(b)

	assertEqualShape(t, Shape{2, 2}, result.Shape(), "MatMul shape")

	expected := []float32{58, 64, 139, 154}
	for i, v := range result.Data() {
		if v != expected[i] {
			t.Errorf("result[%d] = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestReshape(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice[float32]([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	r := a.Reshape(3, 2)

	assertEqualShape(t, Shape{3, 2}, r.Shape(), "Reshape shape")
	if r.At(2, 1) != 6 {
		t.Errorf("reshaped At(2,1) = %v, expected 6", r.At(2, 1))
	}
}

func TestTranspose2D(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice[float64]([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	at := a.T()

	assertEqualShape(t, Shape{3, 2}, at.Shape(), "T shape")
	if at.At(0, 1) != 4 || at.At(2, 0) != 3 {
		t.Errorf("transpose values wrong: At(0,1)=%v At(2,0)=%v", at.At(0, 1), at.At(2, 0))
	}
}

func TestUnsqueezeSqueeze(t *testing.T) {
	backend := NewMockBackend()

	a := Ones[float32](Shape{3, 4}, backend)

	u := a.Unsqueeze(0)
	assertEqualShape(t, Shape{1, 3, 4}, u.Shape(), "Unsqueeze shape")

	s := u.Squeeze(0)
	assertEqualShape(t, Shape{3, 4}, s.Shape(), "Squeeze shape")
}

func TestSqueezePanicsOnNonUnitDim(t *testing.T) {
	backend := NewMockBackend()
	a := Ones[float32](Shape{3, 4}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic squeezing a non-unit dimension")
		}
	}()
	_ = a.Squeeze(0)
}

func TestOnesAndFull(t *testing.T) {
	backend := NewMockBackend()

	ones := Ones[float64](Shape{2, 2}, backend)
	for i, v := range ones.Data() {
		if v != 1 {
			t.Errorf("ones[%d] = %v", i, v)
		}
	}

	full := Full[float32](Shape{5}, 3.5, backend)
	for i, v := range full.Data() {
		if v != 3.5 {
			t.Errorf("full[%d] = %v", i, v)
		}
	}
}

func TestEye(t *testing.T) {
	backend := NewMockBackend()

	eye := Eye[float32](3, backend)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if eye.At(i, j) != want {
				t.Errorf("eye(%d,%d) = %v, expected %v", i, j, eye.At(i, j), want)
			}
		}
	}
}

func TestBernoulli(t *testing.T) {
	backend := NewMockBackend()

	mask := Bernoulli[float32](Shape{100, 100}, 0.7, nil, backend)

	ones := 0
	for _, v := range mask.Data() {
		switch v {
		case 0:
		case 1:
			ones++
		default:
			t.Fatalf("Bernoulli produced non-binary value %v", v)
		}
	}

	rate := float64(ones) / float64(mask.NumElements())
	assertClose(t, 0.7, rate, 0.05, "Bernoulli keep rate")
}

func TestCloneCopyOnWrite(t *testing.T) {
	backend := NewMockBackend()

	a := Ones[float32](Shape{4}, backend)
	b := a.Clone()

	if a.Raw().IsUnique() {
		t.Error("cloned tensor buffer should not be unique")
	}

	b.Raw().Release()
	if !a.Raw().IsUnique() {
		t.Error("buffer should be unique again after clone released")
	}
}

func TestForceNonUnique(t *testing.T) {
	backend := NewMockBackend()

	a := Ones[float32](Shape{4}, backend)
	restore := a.Raw().ForceNonUnique()

	if a.Raw().IsUnique() {
		t.Error("ForceNonUnique should make IsUnique report false")
	}

	restore()
	if !a.Raw().IsUnique() {
		t.Error("restore should bring refcount back to 1")
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Shape
		want    Shape
		wantErr bool
	}{
		{"equal", Shape{2, 3}, Shape{2, 3}, Shape{2, 3}, false},
		{"scalar against matrix", Shape{1}, Shape{4, 5}, Shape{4, 5}, false},
		{"trailing dim", Shape{2, 3}, Shape{3}, Shape{2, 3}, false},
		{"middle ones", Shape{2, 1, 4}, Shape{2, 3, 1}, Shape{2, 3, 4}, false},
		{"incompatible", Shape{2, 3}, Shape{2, 4}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %v vs %v", tt.a, tt.b)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("BroadcastShapes(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRequireGrad(t *testing.T) {
	backend := NewMockBackend()

	a := Zeros[float32](Shape{2}, backend)
	if a.RequiresGrad() {
		t.Error("new tensor should not require grad")
	}

	a.RequireGrad()
	if !a.RequiresGrad() {
		t.Error("RequireGrad should set the flag")
	}

	d := a.Detach()
	if d.RequiresGrad() {
		t.Error("detached tensor should not require grad")
	}
}
