package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-ml/glint/internal/backend/cpu"
	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/optim"
	"github.com/glint-ml/glint/internal/tensor"
)

func makeParam(t *testing.T, backend *cpu.CPUBackend, name string, values ...float32) *nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func makeGrad(t *testing.T, backend *cpu.CPUBackend, param *nn.Parameter[*cpu.CPUBackend], values ...float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	g, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): g.Raw(),
	}
}

func TestSGD_SimpleUpdate(t *testing.T) {
	backend := cpu.New()
	param := makeParam(t, backend, "x", 2)

	opt := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1}, backend)

	opt.Step(makeGrad(t, backend, param, 1))

	// x = 2 - 0.1*1 = 1.9
	assert.InDelta(t, 1.9, float64(param.Tensor().Data()[0]), 1e-6)
}

func TestSGD_Momentum(t *testing.T) {
	backend := cpu.New()
	param := makeParam(t, backend, "x", 1)

	opt := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)

	// v1 = 1, x1 = 1 - 0.1 = 0.9
	opt.Step(makeGrad(t, backend, param, 1))
	assert.InDelta(t, 0.9, float64(param.Tensor().Data()[0]), 1e-6)

	// v2 = 0.9*1 + 1 = 1.9, x2 = 0.9 - 0.19 = 0.71
	opt.Step(makeGrad(t, backend, param, 1))
	assert.InDelta(t, 0.71, float64(param.Tensor().Data()[0]), 1e-6)
}

func TestSGD_SkipsBuffers(t *testing.T) {
	backend := cpu.New()

	mask, err := tensor.FromSlice([]float32{1, 0}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	buffer := nn.NewBuffer("mask", mask)

	opt := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{buffer},
		optim.SGDConfig{LR: 0.5}, backend)

	// A gradient exists for the buffer, but it must not move.
	opt.Step(makeGrad(t, backend, buffer, 10, 10))
	assert.Equal(t, []float32{1, 0}, buffer.Tensor().Data())
}

func TestSGD_SkipsMissingGradients(t *testing.T) {
	backend := cpu.New()
	param := makeParam(t, backend, "x", 3)

	opt := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1}, backend)

	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})
	assert.Equal(t, float32(3), param.Tensor().Data()[0])
}

func TestSGD_StateDictRoundtrip(t *testing.T) {
	backend := cpu.New()
	param1 := makeParam(t, backend, "x", 1)
	param2 := makeParam(t, backend, "x", 1)

	opt1 := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param1},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	opt1.Step(makeGrad(t, backend, param1, 1))

	opt2 := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param2},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	require.NoError(t, opt2.LoadStateDict(opt1.StateDict()))
	copy(param2.Tensor().Data(), param1.Tensor().Data())

	// Both optimizers continue identically from the restored velocity.
	opt1.Step(makeGrad(t, backend, param1, 1))
	opt2.Step(makeGrad(t, backend, param2, 1))
	assert.InDelta(t, float64(param1.Tensor().Data()[0]), float64(param2.Tensor().Data()[0]), 1e-6)
}

func TestSGD_LoadStateDictCopiesState(t *testing.T) {
	backend := cpu.New()
	param1 := makeParam(t, backend, "x", 1)
	param2 := makeParam(t, backend, "x", 1)

	opt1 := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param1},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	opt1.Step(makeGrad(t, backend, param1, 1)) // v1 = 1

	opt2 := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param2},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	require.NoError(t, opt2.LoadStateDict(opt1.StateDict()))

	// Advancing the source optimizer must not touch the restored one:
	// its velocity is a copy, not a view of opt1's buffer.
	opt1.Step(makeGrad(t, backend, param1, 1)) // opt1's velocity -> 1.9

	// opt2 steps from v = 1: v = 0.9*1 + 1 = 1.9, x = 1 - 0.19 = 0.81.
	opt2.Step(makeGrad(t, backend, param2, 1))
	assert.InDelta(t, 0.81, float64(param2.Tensor().Data()[0]), 1e-6)
}

func TestAdam_FirstStepMagnitude(t *testing.T) {
	backend := cpu.New()
	param := makeParam(t, backend, "x", 5)

	lr := float32(0.001)
	opt := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{LR: lr}, backend)

	// After bias correction the first step is lr * g/(|g| + eps),
	// so its size is close to lr regardless of gradient scale.
	opt.Step(makeGrad(t, backend, param, 1000))

	step := 5 - param.Tensor().Data()[0]
	assert.InDelta(t, float64(lr), float64(step), 1e-5)
	assert.Equal(t, 1, opt.Timestep())
}

func TestAdam_MinimizesQuadratic(t *testing.T) {
	backend := cpu.New()
	param := makeParam(t, backend, "x", 3)

	opt := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{LR: 0.1}, backend)

	// Minimize f(x) = x^2 with analytic gradient 2x.
	for i := 0; i < 200; i++ {
		g := 2 * param.Tensor().Data()[0]
		opt.Step(makeGrad(t, backend, param, g))
	}

	assert.InDelta(t, 0.0, float64(param.Tensor().Data()[0]), 0.05)
}

func TestAdam_SkipsBuffers(t *testing.T) {
	backend := cpu.New()

	mask, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	buffer := nn.NewBuffer("mask", mask)

	opt := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{buffer},
		optim.AdamConfig{LR: 0.1}, backend)

	opt.Step(makeGrad(t, backend, buffer, 100))
	assert.Equal(t, float32(1), buffer.Tensor().Data()[0])
}

func TestAdam_StateDictRoundtrip(t *testing.T) {
	backend := cpu.New()
	param1 := makeParam(t, backend, "x", 2)
	param2 := makeParam(t, backend, "x", 2)

	opt1 := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param1},
		optim.AdamConfig{LR: 0.01}, backend)
	opt1.Step(makeGrad(t, backend, param1, 1))

	state := opt1.StateDict()
	assert.Contains(t, state, "m.0")
	assert.Contains(t, state, "v.0")

	opt2 := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param2},
		optim.AdamConfig{LR: 0.01}, backend)
	require.NoError(t, opt2.LoadStateDict(state))

	// The restored moments are copies: stepping opt1 again mutates its
	// own buffers in place and must leave opt2's state untouched.
	snapshot := append([]float32(nil), state["m.0"].AsFloat32()...)
	opt1.Step(makeGrad(t, backend, param1, 1))
	assert.Equal(t, snapshot, opt2.StateDict()["m.0"].AsFloat32())

	// Shape mismatch is rejected.
	bad := makeParam(t, backend, "y", 1, 2, 3)
	opt3 := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{bad},
		optim.AdamConfig{LR: 0.01}, backend)
	assert.Error(t, opt3.LoadStateDict(state))
}

func TestZeroGrad(t *testing.T) {
	backend := cpu.New()
	param := makeParam(t, backend, "x", 1)

	g, err := tensor.FromSlice([]float32{5}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	param.SetGrad(g)
	require.NotNil(t, param.Grad())

	opt := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1}, backend)
	opt.ZeroGrad()

	assert.Nil(t, param.Grad())
}
