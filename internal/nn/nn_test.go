package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-ml/glint/internal/autodiff"
	"github.com/glint-ml/glint/internal/backend/cpu"
	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/tensor"
)

func TestParameter_TrainableFlag(t *testing.T) {
	backend := cpu.New()

	weight := nn.NewParameter("weight", nn.Ones(tensor.Shape{2, 2}, backend))
	mask := nn.NewBuffer("mask", nn.Ones(tensor.Shape{2, 2}, backend))

	assert.True(t, weight.Trainable())
	assert.False(t, mask.Trainable())
	assert.Equal(t, "mask", mask.Name())
}

func TestParameter_GradLifecycle(t *testing.T) {
	backend := cpu.New()

	p := nn.NewParameter("w", nn.Ones(tensor.Shape{2}, backend))
	assert.Nil(t, p.Grad())

	grad := nn.Ones(tensor.Shape{2}, backend)
	p.SetGrad(grad)
	assert.Equal(t, grad, p.Grad())

	p.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestConv2D_ForwardKnownValues(t *testing.T) {
	backend := cpu.New()

	conv := nn.NewConv2D(1, 1, 1, 1, 1, 0, false, backend)

	// Overwrite the Xavier init with a known kernel.
	conv.Weight().Tensor().Data()[0] = 2.0

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	output := conv.Forward(input)

	require.True(t, output.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{2, 4, 6, 8}, output.Data())
}

func TestConv2D_BiasBroadcast(t *testing.T) {
	backend := cpu.New()

	conv := nn.NewConv2D(1, 2, 1, 1, 1, 0, true, backend)

	weights := conv.Weight().Tensor().Data()
	weights[0] = 1.0 // channel 0: identity
	weights[1] = 0.0 // channel 1: zero
	conv.Bias().Tensor().Data()[0] = 10
	conv.Bias().Tensor().Data()[1] = 20

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	output := conv.Forward(input)

	require.True(t, output.Shape().Equal(tensor.Shape{1, 2, 2, 2}))
	assert.Equal(t, []float32{11, 12, 13, 14, 20, 20, 20, 20}, output.Data())
}

func TestConv2D_GradFlowsToBias(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	conv := nn.NewConv2D(1, 1, 3, 3, 1, 1, true, backend)

	input := nn.Randn(tensor.Shape{1, 1, 4, 4}, backend)
	output := conv.Forward(input)

	gradients := autodiff.Backward(output, backend)

	// The bias enters the graph through a recorded reshape; its gradient
	// must come back at the original [out_channels] shape.
	biasGrad := gradients[conv.Bias().Tensor().Raw()]
	require.NotNil(t, biasGrad, "bias should receive a gradient")
	assert.True(t, biasGrad.Shape().Equal(tensor.Shape{1}))

	// Ones seed: bias gradient is the output element count per channel.
	assert.InDelta(t, 16.0, float64(biasGrad.AsFloat32()[0]), 1e-4)

	weightGrad := gradients[conv.Weight().Tensor().Raw()]
	require.NotNil(t, weightGrad, "weight should receive a gradient")
	assert.True(t, weightGrad.Shape().Equal(tensor.Shape{1, 1, 3, 3}))
}

func TestConv2D_InvalidInput(t *testing.T) {
	backend := cpu.New()
	conv := nn.NewConv2D(3, 8, 3, 3, 1, 1, true, backend)

	input := nn.Ones(tensor.Shape{1, 1, 4, 4}, backend) // wrong channel count

	assert.Panics(t, func() {
		conv.Forward(input)
	})
}

func TestSequential_ForwardAndParameters(t *testing.T) {
	backend := cpu.New()

	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewConv2D(1, 4, 3, 3, 1, 1, true, backend),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewConv2D(4, 1, 3, 3, 1, 1, true, backend),
	)

	assert.Equal(t, 3, model.Len())
	assert.Len(t, model.Parameters(), 4) // 2 weights + 2 biases

	input := nn.Randn(tensor.Shape{2, 1, 8, 8}, backend)
	output := model.Forward(input)
	assert.True(t, output.Shape().Equal(tensor.Shape{2, 1, 8, 8}))
}

func TestSequential_StateDictPrefixes(t *testing.T) {
	backend := cpu.New()

	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewConv2D(1, 2, 3, 3, 1, 1, true, backend),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewConv2D(2, 1, 3, 3, 1, 1, false, backend),
	)

	stateDict := model.StateDict()

	assert.Contains(t, stateDict, "0.weight")
	assert.Contains(t, stateDict, "0.bias")
	assert.Contains(t, stateDict, "2.weight")
	assert.NotContains(t, stateDict, "2.bias")
	assert.Len(t, stateDict, 3)
}

func TestSequential_LoadStateDict_ShapeMismatch(t *testing.T) {
	backend := cpu.New()

	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewConv2D(1, 2, 3, 3, 1, 1, true, backend),
	)

	bad, err := tensor.NewRaw(tensor.Shape{5, 5}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	err = model.LoadStateDict(map[string]*tensor.RawTensor{"0.weight": bad})
	assert.Error(t, err)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "model.glnt")

	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewConv2D(1, 2, 3, 3, 1, 1, true, backend),
		nn.NewTanh[*cpu.CPUBackend](),
		nn.NewConv2D(2, 1, 3, 3, 1, 1, true, backend),
	)

	require.NoError(t, nn.Save[*cpu.CPUBackend](path, model, "Sequential", nil))

	// Fresh model with different random init.
	model2 := nn.NewSequential[*cpu.CPUBackend](
		nn.NewConv2D(1, 2, 3, 3, 1, 1, true, backend),
		nn.NewTanh[*cpu.CPUBackend](),
		nn.NewConv2D(2, 1, 3, 3, 1, 1, true, backend),
	)

	require.NoError(t, nn.Load[*cpu.CPUBackend](path, model2, backend))

	// Same weights means same output.
	input := nn.Randn(tensor.Shape{1, 1, 6, 6}, backend)
	out1 := model.Forward(input)
	out2 := model2.Forward(input)

	assert.Equal(t, out1.Data(), out2.Data())
}
