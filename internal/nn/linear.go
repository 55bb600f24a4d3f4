package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/nas/internal/tensor"
)

// Linear is a fully connected layer: output = input @ weight + bias.
//
// Input shape:  [batch, in_features]
// Weight shape: [in_features, out_features]
// Output shape: [batch, out_features]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewLinear creates a linear layer with He-normal weights and zero bias.
// weightDecay regularizes the weight only.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, weightDecay float32, rng *rand.Rand, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}

	weight := HeNormal(inFeatures, tensor.Shape{inFeatures, outFeatures}, rng, backend)
	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("linear.weight", weight).WithWeightDecay(weightDecay),
		bias:        NewParameter("linear.bias", Zeros(tensor.Shape{outFeatures}, backend)),
		backend:     backend,
	}
}

// Forward computes input @ weight + bias.
func (l *Linear[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected input [N, %d], got %v", l.inFeatures, shape))
	}
	return input.MatMul(l.weight.Tensor()).Add(l.bias.Tensor())
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns a map of parameter names to raw tensors.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadEntry(stateDict, "weight", l.weight.Tensor().Raw()); err != nil {
		return err
	}
	return loadEntry(stateDict, "bias", l.bias.Tensor().Raw())
}
