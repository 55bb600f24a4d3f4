package nas

import (
	"math/rand"

	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// PartialChannels is the channel sampling ratio K: a mixed op runs its
// candidate operations on 1/K of the input channels and bypasses the rest.
const PartialChannels = 4

// MixedOp is a weighted mixture of every primitive applied to a partial
// channel slice of its input.
type MixedOp[B tensor.Backend] struct {
	channels int
	stride   int
	ops      [NumPrimitives]nn.Module[B]
	bypass   *nn.MaxPool2D[B]
}

// NewMixedOp builds the candidate operations for one edge. channels must
// be divisible by PartialChannels.
func NewMixedOp[B tensor.Backend](channels, stride int, weightDecay float32, rng *rand.Rand, backend B) (*MixedOp[B], error) {
	if channels <= 0 || channels%PartialChannels != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "mixed op: %d channels not divisible by %d", channels, PartialChannels)
	}

	m := &MixedOp[B]{
		channels: channels,
		stride:   stride,
		bypass: nn.NewMaxPool2D[B](tensor.PoolParams{
			Kernel:  2,
			Stride:  2,
			Padding: tensor.PaddingValid,
		}),
	}
	cfg := OpConfig{
		Channels:    channels / PartialChannels,
		Stride:      stride,
		WeightDecay: weightDecay,
		Affine:      false,
	}
	for _, p := range Primitives() {
		op, err := NewOperation(p, cfg, rng, backend)
		if err != nil {
			return nil, errors.Wrap(err, "mixed op")
		}
		if p.IsPool() {
			op = nn.NewSequential[B](op, nn.NewBatchNorm2D(cfg.Channels, false, backend))
		}
		m.ops[p] = op
	}
	return m, nil
}

// Forward returns shuffle(concat(Σ w_i·op_i(x_a), x_b), K) where x_a is the
// first C/K channels of x and x_b the remainder, max-pooled 2×2 when the
// operations changed the spatial size. weights holds one coefficient per
// primitive.
func (m *MixedOp[B]) Forward(x *tensor.Tensor[B], weights []float32) (*tensor.Tensor[B], error) {
	shape := x.Shape()
	if len(shape) != 4 || shape[3] != m.channels {
		return nil, errors.Wrapf(ErrShapeMismatch, "mixed op: expected [N,H,W,%d] input, got %v", m.channels, shape)
	}
	if len(weights) != NumPrimitives {
		return nil, errors.Wrapf(ErrShapeMismatch, "mixed op: expected %d weights, got %d", NumPrimitives, len(weights))
	}

	part := m.channels / PartialChannels
	active := x.Narrow(3, 0, part)
	passive := x.Narrow(3, part, m.channels-part)

	var sum *tensor.Tensor[B]
	for p, op := range m.ops {
		y := op.Forward(active).MulScalar(weights[p])
		if sum == nil {
			sum = y
			continue
		}
		sum = sum.Add(y)
	}

	if out := sum.Shape(); out[1] != shape[1] || out[2] != shape[2] {
		passive = m.bypass.Forward(passive)
	}

	return ChannelShuffle(tensor.Cat([]*tensor.Tensor[B]{sum, passive}, 3), PartialChannels)
}

// Channels returns the input (and output) channel count.
func (m *MixedOp[B]) Channels() int { return m.channels }

// Stride returns the edge stride.
func (m *MixedOp[B]) Stride() int { return m.stride }

// Op returns the module for primitive p.
func (m *MixedOp[B]) Op(p Primitive) nn.Module[B] { return m.ops[p] }

// SetTraining switches every batch norm inside the candidate operations.
func (m *MixedOp[B]) SetTraining(training bool) {
	for _, op := range m.ops {
		nn.SetTraining(training, op)
	}
}

// Parameters returns the parameters of all candidate operations.
func (m *MixedOp[B]) Parameters() []*nn.Parameter[B] {
	params := []*nn.Parameter[B]{}
	for _, op := range m.ops {
		params = append(params, op.Parameters()...)
	}
	return params
}

// StateDict returns the candidate operation states keyed by primitive name.
func (m *MixedOp[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for p, op := range m.ops {
		nn.MergeStateDict(stateDict, Primitive(p).String(), op.StateDict())
	}
	return stateDict
}

// LoadStateDict loads the candidate operation states.
func (m *MixedOp[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for p, op := range m.ops {
		name := Primitive(p).String()
		if err := op.LoadStateDict(nn.SubStateDict(stateDict, name)); err != nil {
			return errors.Wrapf(err, "mixed op %s", name)
		}
	}
	return nil
}
