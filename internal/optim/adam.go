package optim

import (
	"fmt"
	"math"

	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/tensor"
)

// Adam implements adaptive moment estimation (Kingma & Ba, 2014).
//
// Update rule:
//
//	m_t   = beta1 * m_{t-1} + (1-beta1) * grad
//	v_t   = beta2 * v_{t-1} + (1-beta2) * grad^2
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
type Adam[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	lr      float32
	beta1   float32
	beta2   float32
	eps     float32
	t       int
	m       map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	v       map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend B
}

// AdamConfig holds Adam hyperparameters.
type AdamConfig struct {
	LR    float32    // default 0.001
	Betas [2]float32 // default [0.9, 0.999]
	Eps   float32    // default 1e-8
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[B]{
		params:  params,
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		m:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		v:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend: backend,
	}
}

// Step applies one Adam update to every trainable parameter with a
// gradient in grads.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++

	biasCorrection1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		m, ok := a.m[param]
		if !ok {
			m = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
			a.v[param] = v
		}

		gradData := grad.AsFloat32()
		mData := m.Data()
		vData := v.Data()
		paramData := param.Tensor().Data()

		for i := range paramData {
			g := gradData[i]
			mData[i] = a.beta1*mData[i] + (1-a.beta1)*g
			vData[i] = a.beta2*vData[i] + (1-a.beta2)*g*g

			mHat := mData[i] / biasCorrection1
			vHat := vData[i] / biasCorrection2

			paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate, for schedulers.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// Timestep returns the number of updates applied so far.
func (a *Adam[B]) Timestep() int {
	return a.t
}

// StateDict exports the moment buffers, keyed "m.{index}" and
// "v.{index}". The timestep is not exported; restoring mid-run resets
// bias correction.
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, param := range a.params {
		if m, ok := a.m[param]; ok {
			stateDict[fmt.Sprintf("m.%d", i)] = m.Raw()
		}
		if v, ok := a.v[param]; ok {
			stateDict[fmt.Sprintf("v.%d", i)] = v.Raw()
		}
	}
	return stateDict
}

// LoadStateDict restores moment buffers. Missing entries stay
// uninitialized and are created lazily on the next Step.
//
// Values are copied into fresh buffers: the restored optimizer must not
// share storage with whatever produced the state dict.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	a.m = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	a.v = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])

	for i, param := range a.params {
		for _, entry := range []struct {
			key  string
			dest map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
		}{
			{fmt.Sprintf("m.%d", i), a.m},
			{fmt.Sprintf("v.%d", i), a.v},
		} {
			raw, ok := stateDict[entry.key]
			if !ok {
				continue
			}
			if raw.DType() != tensor.Float32 {
				return fmt.Errorf("moment dtype mismatch for %q: expected float32, got %v",
					entry.key, raw.DType())
			}
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("moment shape mismatch for %q: expected %v, got %v",
					entry.key, param.Tensor().Shape(), raw.Shape())
			}

			moment := tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
			copy(moment.Data(), raw.AsFloat32())
			entry.dest[param] = moment
		}
	}
	return nil
}
