package optim

import (
	"fmt"

	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Without momentum:
//
//	param = param - lr * grad
//
// With momentum:
//
//	velocity = momentum * velocity + grad
//	param    = param - lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig holds SGD hyperparameters.
type SGDConfig struct {
	LR       float32 // default 0.01
	Momentum float32 // default 0, range [0, 1)
}

// NewSGD creates an SGD optimizer over the given parameters. Buffers in
// the list are carried but never updated.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}
}

// Step applies one SGD update to every trainable parameter with a
// gradient in grads.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		gradTensor := tensor.New[float32, B](grad, s.backend)

		update := gradTensor
		if s.momentum != 0 {
			update = s.advanceVelocity(param, gradTensor)
		}

		stepped := param.Tensor().Sub(update.MulScalar(s.lr))
		copy(param.Tensor().Data(), stepped.Data())
	}
}

// advanceVelocity folds the gradient into the parameter's velocity
// buffer and returns the updated velocity.
func (s *SGD[B]) advanceVelocity(param *nn.Parameter[B], grad *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	velocity, ok := s.velocities[param]
	if !ok {
		velocity = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		s.velocities[param] = velocity
	}

	next := velocity.MulScalar(s.momentum).Add(grad)
	copy(velocity.Data(), next.Data())
	return velocity
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate, for schedulers.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// StateDict exports the velocity buffers, keyed "velocity.{index}".
// Without momentum the state is empty.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return stateDict
	}

	for i, param := range s.params {
		velocity, ok := s.velocities[param]
		if !ok {
			continue
		}
		stateDict[fmt.Sprintf("velocity.%d", i)] = velocity.Raw()
	}
	return stateDict
}

// LoadStateDict restores velocity buffers. Missing entries stay
// uninitialized and are created lazily on the next Step.
//
// Values are copied into fresh buffers: the restored optimizer must not
// share storage with whatever produced the state dict.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}

	s.velocities = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])

	for i, param := range s.params {
		velocityRaw, ok := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if velocityRaw.DType() != tensor.Float32 {
			return fmt.Errorf("velocity dtype mismatch for parameter %d: expected float32, got %v",
				i, velocityRaw.DType())
		}
		if !velocityRaw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), velocityRaw.Shape())
		}

		velocity := tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		copy(velocity.Data(), velocityRaw.AsFloat32())
		s.velocities[param] = velocity
	}
	return nil
}
