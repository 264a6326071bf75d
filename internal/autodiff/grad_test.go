package autodiff_test

import (
	"math"
	"testing"

	"github.com/glint-ml/glint/internal/autodiff"
	"github.com/glint-ml/glint/internal/backend/cpu"
	"github.com/glint-ml/glint/internal/tensor"
)

// TestVJP_Cotangent tests the vector-Jacobian product with a non-ones
// cotangent: for y = a * b, the pulled-back gradient of <v, y> wrt a is v*b.
func TestVJP_Cotangent(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{4, 5}, tensor.Shape{2}, backend)

	yRaw := backend.Mul(a.Raw(), b.Raw())
	y := tensor.New[float32](yRaw, backend)

	v, _ := tensor.FromSlice([]float32{10, 100}, tensor.Shape{2}, backend)

	grads := autodiff.VJP(y, v, backend, false)

	gradA := grads[a.Raw()]
	gradB := grads[b.Raw()]
	if gradA == nil || gradB == nil {
		t.Fatal("Expected gradients for both inputs")
	}

	expectedGradA := []float32{40, 500}  // v * b
	expectedGradB := []float32{20, 300}  // v * a

	for i := range expectedGradA {
		if got := gradA.AsFloat32()[i]; math.Abs(float64(got-expectedGradA[i])) > 1e-5 {
			t.Errorf("grad_a[%d] = %f, want %f", i, got, expectedGradA[i])
		}
		if got := gradB.AsFloat32()[i]; math.Abs(float64(got-expectedGradB[i])) > 1e-5 {
			t.Errorf("grad_b[%d] = %f, want %f", i, got, expectedGradB[i])
		}
	}
}

// TestVJP_ShapeMismatch tests that a cotangent with the wrong shape panics.
func TestVJP_ShapeMismatch(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	yRaw := backend.MulScalar(a.Raw(), float32(2.0))
	y := tensor.New[float32](yRaw, backend)

	v, _ := tensor.FromSlice([]float32{1, 1, 1}, tensor.Shape{3}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for mismatched cotangent shape")
		}
	}()
	autodiff.VJP(y, v, backend, false)
}

// TestVJP_NoCreateGraph tests that a plain VJP does not grow the tape.
func TestVJP_NoCreateGraph(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)
	yRaw := backend.Mul(x.Raw(), x.Raw())
	y := tensor.New[float32](yRaw, backend)

	numOpsForward := tape.NumOps()

	v, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	autodiff.VJP(y, v, backend, false)

	if tape.NumOps() != numOpsForward {
		t.Errorf("VJP without createGraph grew the tape: %d -> %d", numOpsForward, tape.NumOps())
	}

	if !tape.IsRecording() {
		t.Error("Recording state should be restored after VJP")
	}
}

// TestVJP_CreateGraph_RecordsBackward tests that with createGraph the
// backward pass operations land on the tape.
func TestVJP_CreateGraph_RecordsBackward(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)
	yRaw := backend.Mul(x.Raw(), x.Raw())
	y := tensor.New[float32](yRaw, backend)

	numOpsForward := tape.NumOps()

	v, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	autodiff.VJP(y, v, backend, true)

	if tape.NumOps() <= numOpsForward {
		t.Errorf("createGraph VJP should record backward ops: %d -> %d", numOpsForward, tape.NumOps())
	}
}

// TestSecondOrder_Cubic differentiates the gradient of y = x³.
//
// First pass: dy/dx = 3x². Second pass over the recorded backward graph:
// d²y/dx² = 6x. At x = 2 both are 12.
func TestSecondOrder_Cubic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)

	// y = x * x * x
	sq := backend.Mul(x.Raw(), x.Raw())
	y := backend.Mul(sq, x.Raw())

	ones, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)

	// First derivative, keeping the backward pass on the tape.
	grads := tape.Grad(y, ones.Raw(), backend, true)
	gradX := grads[x.Raw()]
	if gradX == nil {
		t.Fatal("Expected first-order gradient for x")
	}
	if got := gradX.AsFloat32()[0]; math.Abs(float64(got-12.0)) > 1e-5 {
		t.Fatalf("dy/dx = %f, want 12 (3x² at x=2)", got)
	}

	// Second derivative: differentiate the first gradient.
	grads2 := tape.Grad(gradX, ones.Raw(), backend, false)
	gradX2 := grads2[x.Raw()]
	if gradX2 == nil {
		t.Fatal("Expected second-order gradient for x")
	}
	if got := gradX2.AsFloat32()[0]; math.Abs(float64(got-12.0)) > 1e-4 {
		t.Errorf("d²y/dx² = %f, want 12 (6x at x=2)", got)
	}
}

// TestSecondOrder_QuadraticForm checks d²/dx² of sum(x*x) elementwise.
//
// First gradient is 2x, so differentiating it again must give the constant 2.
func TestSecondOrder_QuadraticForm(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float32{1, -2, 3}, tensor.Shape{3}, backend)

	sq := backend.Mul(x.Raw(), x.Raw())
	loss := backend.Sum(sq)

	seed, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)

	grads := tape.Grad(loss, seed.Raw(), backend, true)
	gradX := grads[x.Raw()]
	if gradX == nil {
		t.Fatal("Expected first-order gradient for x")
	}

	expected := []float32{2, -4, 6}
	for i, v := range gradX.AsFloat32() {
		if math.Abs(float64(v-expected[i])) > 1e-5 {
			t.Fatalf("dloss/dx[%d] = %f, want %f", i, v, expected[i])
		}
	}

	ones, _ := tensor.FromSlice([]float32{1, 1, 1}, tensor.Shape{3}, backend)
	grads2 := tape.Grad(gradX, ones.Raw(), backend, false)
	gradX2 := grads2[x.Raw()]
	if gradX2 == nil {
		t.Fatal("Expected second-order gradient for x")
	}

	for i, v := range gradX2.AsFloat32() {
		if math.Abs(float64(v-2.0)) > 1e-4 {
			t.Errorf("d²loss/dx²[%d] = %f, want 2", i, v)
		}
	}
}

// TestSecondOrder_ShiftedProduct differentiates the gradient of
// y = (x + 1) * x, whose backward pass routes a gradient through the
// scalar-shift pass-through. dy/dx = 2x + 1 and d²y/dx² = 2.
func TestSecondOrder_ShiftedProduct(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)

	shifted := backend.AddScalar(x.Raw(), float32(1.0))
	y := backend.Mul(shifted, x.Raw())

	ones, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)

	grads := tape.Grad(y, ones.Raw(), backend, true)
	gradX := grads[x.Raw()]
	if gradX == nil {
		t.Fatal("Expected first-order gradient for x")
	}
	if got := gradX.AsFloat32()[0]; math.Abs(float64(got-5.0)) > 1e-5 {
		t.Fatalf("dy/dx = %f, want 5 (2x+1 at x=2)", got)
	}

	grads2 := tape.Grad(gradX, ones.Raw(), backend, false)
	gradX2 := grads2[x.Raw()]
	if gradX2 == nil {
		t.Fatal("Expected second-order gradient for x")
	}
	if got := gradX2.AsFloat32()[0]; math.Abs(float64(got-2.0)) > 1e-4 {
		t.Errorf("d²y/dx² = %f, want 2", got)
	}
}

// TestSecondOrder_Conv differentiates through a convolution's backward pass.
//
// For y = conv(x, k) with a fixed kernel, the map x -> Jᵀv is linear in v,
// so differentiating <u, Jᵀv> wrt v must recover Ju independent of x.
func TestSecondOrder_Conv(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2}, backend)
	k, _ := tensor.FromSlice([]float32{3}, tensor.Shape{1, 1, 1, 1}, backend)

	y := backend.Conv2D(x.Raw(), k.Raw(), 1, 0)

	v, _ := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2}, backend)

	grads := tape.Grad(y, v.Raw(), backend, true)
	jtv := grads[x.Raw()]
	if jtv == nil {
		t.Fatal("Expected Jᵀv for x")
	}

	// 1x1 kernel of 3: Jᵀv = 3v.
	expected := []float32{3, 0, 0, 3}
	for i, got := range jtv.AsFloat32() {
		if math.Abs(float64(got-expected[i])) > 1e-5 {
			t.Fatalf("Jᵀv[%d] = %f, want %f", i, got, expected[i])
		}
	}

	// Differentiate <u, Jᵀv> wrt v. The result is Ju = 3u.
	u, _ := tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2}, backend)
	grads2 := tape.Grad(jtv, u.Raw(), backend, false)
	ju := grads2[v.Raw()]
	if ju == nil {
		t.Fatal("Expected gradient wrt the cotangent")
	}

	for i, got := range ju.AsFloat32() {
		if math.Abs(float64(got-3.0)) > 1e-4 {
			t.Errorf("Ju[%d] = %f, want 3", i, got)
		}
	}
}

// TestBackward_PanicsWithoutOps tests the guard against an empty tape.
func TestBackward_PanicsWithoutOps(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when no operations are recorded")
		}
	}()
	autodiff.Backward(x, backend)
}
