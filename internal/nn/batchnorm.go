package nn

import (
	"fmt"

	"github.com/born-ml/nas/internal/tensor"
)

// Batch normalization defaults.
const (
	DefaultBNMomentum float32 = 0.9
	DefaultBNEpsilon  float32 = 1e-5
)

// BatchNorm2D normalizes each channel of an NHWC tensor.
//
// In training mode the batch statistics are used and folded into the
// moving averages; in inference mode the moving averages are used.
// Without affine the layer has no learnable scale or shift.
//
// Example:
//
//	bn := nn.NewBatchNorm2D(16, true, backend)
//	output := bn.Forward(input)
type BatchNorm2D[B tensor.Backend] struct {
	channels int
	affine   bool
	training bool
	momentum float32
	eps      float32

	gamma *Parameter[B] // nil unless affine
	beta  *Parameter[B] // nil unless affine

	movingMean     *tensor.Tensor[B]
	movingVariance *tensor.Tensor[B]

	backend B
}

// NewBatchNorm2D creates a batch normalization layer in training mode.
func NewBatchNorm2D[B tensor.Backend](channels int, affine bool, backend B) *BatchNorm2D[B] {
	if channels <= 0 {
		panic(fmt.Sprintf("batchnorm: invalid channels %d", channels))
	}

	bn := &BatchNorm2D[B]{
		channels:       channels,
		affine:         affine,
		training:       true,
		momentum:       DefaultBNMomentum,
		eps:            DefaultBNEpsilon,
		movingMean:     Zeros(tensor.Shape{channels}, backend),
		movingVariance: Ones(tensor.Shape{channels}, backend),
		backend:        backend,
	}
	if affine {
		bn.gamma = NewParameter("batchnorm.gamma", Ones(tensor.Shape{channels}, backend))
		bn.beta = NewParameter("batchnorm.beta", Zeros(tensor.Shape{channels}, backend))
	}
	return bn
}

// Forward normalizes input along its last axis.
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	if shape[len(shape)-1] != bn.channels {
		panic(fmt.Sprintf("batchnorm: input channels %d != expected %d", shape[len(shape)-1], bn.channels))
	}

	mean, variance := bn.movingMean.Raw(), bn.movingVariance.Raw()
	if bn.training {
		mean, variance = bn.backend.ChannelMoments(input.Raw())
		bn.updateMoving(mean, variance)
	}

	var gamma, beta *tensor.RawTensor
	if bn.affine {
		gamma, beta = bn.gamma.Tensor().Raw(), bn.beta.Tensor().Raw()
	}

	return tensor.New(bn.backend.BatchNorm(input.Raw(), mean, variance, gamma, beta, bn.eps), bn.backend)
}

func (bn *BatchNorm2D[B]) updateMoving(mean, variance *tensor.RawTensor) {
	m, v := bn.movingMean.Data(), bn.movingVariance.Data()
	for c := range m {
		m[c] = bn.momentum*m[c] + (1-bn.momentum)*mean.Data()[c]
		v[c] = bn.momentum*v[c] + (1-bn.momentum)*variance.Data()[c]
	}
}

// SetTraining switches between batch and moving statistics.
func (bn *BatchNorm2D[B]) SetTraining(training bool) {
	bn.training = training
}

// Training reports whether batch statistics are used.
func (bn *BatchNorm2D[B]) Training() bool {
	return bn.training
}

// Affine reports whether the layer has a learnable scale and shift.
func (bn *BatchNorm2D[B]) Affine() bool {
	return bn.affine
}

// Parameters returns gamma and beta, or nothing for a non-affine layer.
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	if !bn.affine {
		return []*Parameter[B]{}
	}
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// StateDict returns the moving statistics and, when affine, gamma and beta.
func (bn *BatchNorm2D[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := map[string]*tensor.RawTensor{
		"moving_mean":     bn.movingMean.Raw(),
		"moving_variance": bn.movingVariance.Raw(),
	}
	if bn.affine {
		stateDict["gamma"] = bn.gamma.Tensor().Raw()
		stateDict["beta"] = bn.beta.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict loads the moving statistics and affine parameters.
func (bn *BatchNorm2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	targets := map[string]*tensor.RawTensor{
		"moving_mean":     bn.movingMean.Raw(),
		"moving_variance": bn.movingVariance.Raw(),
	}
	if bn.affine {
		targets["gamma"] = bn.gamma.Tensor().Raw()
		targets["beta"] = bn.beta.Tensor().Raw()
	}
	for key, dst := range targets {
		if err := loadEntry(stateDict, key, dst); err != nil {
			return err
		}
	}
	return nil
}
