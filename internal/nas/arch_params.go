package nas

import (
	"math/rand"

	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// archInitScale scales the N(0,1) draw of every architecture parameter.
const archInitScale = 1e-3

// ArchParams holds the architecture parameters of a search network:
// per-edge op logits (alphas, [E, NumPrimitives]) and per-edge logits
// (betas, [E]) for normal and reduction cells. Normal and reduction cells
// share one set each across all layers.
type ArchParams[B tensor.Backend] struct {
	steps        int
	AlphasNormal *nn.Parameter[B]
	AlphasReduce *nn.Parameter[B]
	BetasNormal  *nn.Parameter[B]
	BetasReduce  *nn.Parameter[B]
}

// NewArchParams draws fresh architecture parameters.
func NewArchParams[B tensor.Backend](steps int, rng *rand.Rand, backend B) *ArchParams[B] {
	e := NumEdges(steps)
	draw := func(name string, shape tensor.Shape) *nn.Parameter[B] {
		return nn.NewParameter(name, tensor.Randn(shape, rng, backend).MulScalar(archInitScale))
	}
	return &ArchParams[B]{
		steps:        steps,
		AlphasNormal: draw("alphas_normal", tensor.Shape{e, NumPrimitives}),
		AlphasReduce: draw("alphas_reduce", tensor.Shape{e, NumPrimitives}),
		BetasNormal:  draw("betas_normal", tensor.Shape{e}),
		BetasReduce:  draw("betas_reduce", tensor.Shape{e}),
	}
}

// Steps returns the number of intermediate nodes the parameters cover.
func (a *ArchParams[B]) Steps() int { return a.steps }

// Parameters returns alphas_normal, alphas_reduce, betas_normal and
// betas_reduce, by reference, in that order.
func (a *ArchParams[B]) Parameters() []*nn.Parameter[B] {
	return []*nn.Parameter[B]{a.AlphasNormal, a.AlphasReduce, a.BetasNormal, a.BetasReduce}
}

// Normalized returns the softmaxed op weights and edge weights for the
// requested cell kind.
func (a *ArchParams[B]) Normalized(reduction bool) (weights, edgeWeights *tensor.Tensor[B], err error) {
	alphas, betas := a.AlphasNormal, a.BetasNormal
	if reduction {
		alphas, betas = a.AlphasReduce, a.BetasReduce
	}
	return normalize(alphas.Tensor(), betas.Tensor(), a.steps)
}

func normalize[B tensor.Backend](alphas, betas *tensor.Tensor[B], steps int) (weights, edgeWeights *tensor.Tensor[B], err error) {
	weights, err = SoftmaxAlphas(alphas)
	if err != nil {
		return nil, nil, err
	}
	edgeWeights, err = SplitSoftmax(betas, NodeSizes(steps))
	if err != nil {
		return nil, nil, err
	}
	return weights, edgeWeights, nil
}

// StateDict returns the four tensors keyed by parameter name.
func (a *ArchParams[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, 4)
	for _, p := range a.Parameters() {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict copies the four tensors in place.
func (a *ArchParams[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, p := range a.Parameters() {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return errors.Errorf("missing %s in state dict", p.Name())
		}
		if err := p.Load(raw); err != nil {
			return errors.Wrap(ErrShapeMismatch, err.Error())
		}
	}
	return nil
}

// SoftmaxAlphas normalizes each row of an [E, NumPrimitives] alpha tensor.
func SoftmaxAlphas[B tensor.Backend](alphas *tensor.Tensor[B]) (*tensor.Tensor[B], error) {
	if s := alphas.Shape(); len(s) != 2 || s[1] != NumPrimitives {
		return nil, errors.Wrapf(ErrShapeMismatch, "alphas: expected [E %d], got %v", NumPrimitives, s)
	}
	return alphas.Softmax(1), nil
}

// SplitSoftmax normalizes consecutive slices of a 1-D tensor independently.
// sizes must add up to the tensor length; each slice then sums to 1.
func SplitSoftmax[B tensor.Backend](betas *tensor.Tensor[B], sizes []int) (*tensor.Tensor[B], error) {
	s := betas.Shape()
	if len(s) != 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "betas: expected 1D tensor, got %v", s)
	}
	total := 0
	for _, n := range sizes {
		if n <= 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "betas: invalid slice size %d", n)
		}
		total += n
	}
	if total != s[0] {
		return nil, errors.Wrapf(ErrShapeMismatch, "betas: slices cover %d of %d entries", total, s[0])
	}

	parts := make([]*tensor.Tensor[B], len(sizes))
	offset := 0
	for i, n := range sizes {
		parts[i] = betas.Narrow(0, offset, n).Softmax(0)
		offset += n
	}
	return tensor.Cat(parts, 0), nil
}
