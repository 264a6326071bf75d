package models

import (
	"github.com/glint-ml/glint/internal/nn"
	"github.com/glint-ml/glint/internal/tensor"
)

// DnCNN is a residual convolutional denoiser.
//
// The network predicts the noise component; the denoised estimate is the
// input minus the prediction. All convolutions are 3x3 with padding 1, so
// spatial dimensions are preserved.
//
// DnCNN is a blind denoiser: Denoise ignores sigma. It implements both
// the Denoiser interface and nn.Module (Forward returns the denoised
// image).
type DnCNN[B tensor.Backend] struct {
	net      *nn.Sequential[B]
	channels int
	depth    int
}

// NewDnCNN creates a DnCNN with the given input/output channel count,
// hidden width, and total number of convolution layers (depth >= 2).
//
// Architecture: conv-relu, (depth-2) x conv-relu, conv.
func NewDnCNN[B tensor.Backend](channels, hidden, depth int, backend B) *DnCNN[B] {
	if depth < 2 {
		panic("dncnn: depth must be at least 2")
	}

	net := nn.NewSequential[B]()
	net.Add(nn.NewConv2D(channels, hidden, 3, 3, 1, 1, true, backend))
	net.Add(nn.NewReLU[B]())
	for i := 0; i < depth-2; i++ {
		net.Add(nn.NewConv2D(hidden, hidden, 3, 3, 1, 1, true, backend))
		net.Add(nn.NewReLU[B]())
	}
	net.Add(nn.NewConv2D(hidden, channels, 3, 3, 1, 1, true, backend))

	return &DnCNN[B]{
		net:      net,
		channels: channels,
		depth:    depth,
	}
}

// Denoise returns x minus the predicted noise. Sigma is ignored.
func (d *DnCNN[B]) Denoise(x *tensor.Tensor[float32, B], _ float32) *tensor.Tensor[float32, B] {
	return x.Sub(d.net.Forward(x))
}

// Forward implements nn.Module; equivalent to Denoise with sigma 0.
func (d *DnCNN[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return d.Denoise(input, 0)
}

// Parameters returns the parameters of the underlying network.
func (d *DnCNN[B]) Parameters() []*nn.Parameter[B] {
	return d.net.Parameters()
}

// StateDict returns the state dict of the underlying network.
func (d *DnCNN[B]) StateDict() map[string]*tensor.RawTensor {
	return d.net.StateDict()
}

// LoadStateDict loads the underlying network's parameters.
func (d *DnCNN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return d.net.LoadStateDict(stateDict)
}

// Channels returns the image channel count.
func (d *DnCNN[B]) Channels() int {
	return d.channels
}

// Depth returns the number of convolution layers.
func (d *DnCNN[B]) Depth() int {
	return d.depth
}
