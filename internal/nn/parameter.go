package nn

import (
	"fmt"

	"github.com/born-ml/nas/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are shared by reference: an optimizer that updates
// Tensor().Data() in place changes what every Forward call sees next.
//
// WeightDecay is the L2 coefficient applied to this parameter by
// L2Penalty; zero means unregularized.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor).WithWeightDecay(3e-4)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name        string
	tensor      *tensor.Tensor[B]
	weightDecay float32
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// WithWeightDecay sets the L2 coefficient and returns the parameter.
func (p *Parameter[B]) WithWeightDecay(wd float32) *Parameter[B] {
	p.weightDecay = wd
	return p
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[B] {
	return p.tensor
}

// WeightDecay returns the L2 coefficient.
func (p *Parameter[B]) WeightDecay() float32 {
	return p.weightDecay
}

// Load copies raw into the parameter after validating its shape.
func (p *Parameter[B]) Load(raw *tensor.RawTensor) error {
	if err := p.tensor.Raw().CopyFrom(raw); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	return nil
}
