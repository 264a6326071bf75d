// Package optim implements gradient-based optimizers for training.
//
// Optimizers consume the gradient map produced by autodiff.Backward and
// update parameters in place:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//
//	for step := 0; step < steps; step++ {
//	    backend.Tape().StartRecording()
//	    loss := computeLoss(model, batch)
//	    grads := autodiff.Backward(loss, backend)
//	    backend.Tape().StopRecording()
//	    backend.Tape().Clear()
//
//	    opt.Step(grads)
//	    opt.ZeroGrad()
//	}
//
// Non-trainable parameters (buffers such as measurement masks) are
// skipped even when a gradient exists for them.
package optim

import (
	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/tensor"
)

// Optimizer updates parameters from a gradient map.
type Optimizer interface {
	// Step applies one update to all trainable parameters. Parameters
	// absent from the gradient map are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears stored parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient looks up the gradient for a parameter, returning nil when
// the parameter is a buffer or took no part in the recorded graph.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil || !param.Trainable() {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
