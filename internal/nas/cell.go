package nas

import (
	"math/rand"
	"strconv"

	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// CellConfig sizes a search cell.
type CellConfig struct {
	Steps         int  // intermediate nodes
	Multiplier    int  // trailing states concatenated into the output
	ChPrevPrev    int  // channels of the input two cells back
	ChPrev        int  // channels of the previous cell output
	Ch            int  // channels of every node inside the cell
	Reduction     bool // halve the spatial size
	ReductionPrev bool // the previous cell was a reduction cell
	WeightDecay   float32
}

func (c CellConfig) validate() error {
	switch {
	case c.Steps <= 0:
		return errors.Wrapf(ErrInvalidConfig, "cell: steps must be positive, got %d", c.Steps)
	case c.Multiplier <= 0 || c.Multiplier > c.Steps:
		return errors.Wrapf(ErrInvalidConfig, "cell: multiplier must be in [1, %d], got %d", c.Steps, c.Multiplier)
	case c.ChPrevPrev <= 0 || c.ChPrev <= 0:
		return errors.Wrapf(ErrInvalidConfig, "cell: invalid input channels %d, %d", c.ChPrevPrev, c.ChPrev)
	case c.Ch <= 0 || c.Ch%PartialChannels != 0:
		return errors.Wrapf(ErrShapeMismatch, "cell: %d channels not divisible by %d", c.Ch, PartialChannels)
	case c.ReductionPrev && c.Ch%2 != 0:
		return errors.Wrapf(ErrShapeMismatch, "cell: factorized reduce needs even channels, got %d", c.Ch)
	}
	return nil
}

// Cell is a searchable DAG: two preprocessed inputs, Steps intermediate
// nodes each summing weighted mixed ops over all earlier states, and an
// output concatenating the last Multiplier nodes along channels.
type Cell[B tensor.Backend] struct {
	cfg         CellConfig
	topology    *Topology
	preprocess0 nn.Module[B]
	preprocess1 nn.Module[B]
	ops         []*MixedOp[B]
}

// NewCell builds a cell.
func NewCell[B tensor.Backend](cfg CellConfig, rng *rand.Rand, backend B) (*Cell[B], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Cell[B]{
		cfg:      cfg,
		topology: NewTopology(cfg.Steps, cfg.Reduction),
	}
	if cfg.ReductionPrev {
		c.preprocess0 = NewFactorizedReduce(cfg.ChPrevPrev, cfg.Ch, cfg.WeightDecay, false, rng, backend)
	} else {
		c.preprocess0 = NewReLUConvBN(cfg.ChPrevPrev, cfg.Ch, 1, 1, cfg.WeightDecay, false, rng, backend)
	}
	c.preprocess1 = NewReLUConvBN(cfg.ChPrev, cfg.Ch, 1, 1, cfg.WeightDecay, false, rng, backend)

	c.ops = make([]*MixedOp[B], 0, c.topology.NumEdges())
	for _, e := range c.topology.Edges() {
		op, err := NewMixedOp(cfg.Ch, e.Stride, cfg.WeightDecay, rng, backend)
		if err != nil {
			return nil, errors.Wrapf(err, "cell edge %d", e.Index)
		}
		c.ops = append(c.ops, op)
	}
	return c, nil
}

// Forward runs the cell. weights is the normalized [E, NumPrimitives] op
// mixture and edgeWeights the normalized [E] edge coefficients.
func (c *Cell[B]) Forward(s0, s1, weights, edgeWeights *tensor.Tensor[B]) (*tensor.Tensor[B], error) {
	numEdges := c.topology.NumEdges()
	if ws := weights.Shape(); len(ws) != 2 || ws[0] != numEdges || ws[1] != NumPrimitives {
		return nil, errors.Wrapf(ErrShapeMismatch, "cell: expected weights [%d %d], got %v", numEdges, NumPrimitives, ws)
	}
	if es := edgeWeights.Shape(); len(es) != 1 || es[0] != numEdges {
		return nil, errors.Wrapf(ErrShapeMismatch, "cell: expected edge weights [%d], got %v", numEdges, es)
	}
	if err := checkInput("s0", s0, c.cfg.ChPrevPrev); err != nil {
		return nil, err
	}
	if err := checkInput("s1", s1, c.cfg.ChPrev); err != nil {
		return nil, err
	}

	w := weights.Data()
	ew := edgeWeights.Data()

	states := make([]*tensor.Tensor[B], 0, 2+c.cfg.Steps)
	states = append(states, c.preprocess0.Forward(s0), c.preprocess1.Forward(s1))
	if !states[0].Shape().Equal(states[1].Shape()) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cell: preprocessed inputs disagree: %v vs %v",
			states[0].Shape(), states[1].Shape())
	}

	for i := 0; i < c.cfg.Steps; i++ {
		var node *tensor.Tensor[B]
		for _, e := range c.topology.NodeEdges(i) {
			row := w[e.Index*NumPrimitives : (e.Index+1)*NumPrimitives]
			y, err := c.ops[e.Index].Forward(states[e.Source], row)
			if err != nil {
				return nil, errors.Wrapf(err, "cell edge %d", e.Index)
			}
			y = y.MulScalar(ew[e.Index])
			if node == nil {
				node = y
				continue
			}
			node = node.Add(y)
		}
		states = append(states, node)
	}

	return tensor.Cat(states[len(states)-c.cfg.Multiplier:], 3), nil
}

func checkInput[B tensor.Backend](name string, x *tensor.Tensor[B], channels int) error {
	if s := x.Shape(); len(s) != 4 || s[3] != channels {
		return errors.Wrapf(ErrShapeMismatch, "cell: expected %s [N,H,W,%d], got %v", name, channels, s)
	}
	return nil
}

// Config returns the cell configuration.
func (c *Cell[B]) Config() CellConfig { return c.cfg }

// Topology returns the edge layout.
func (c *Cell[B]) Topology() *Topology { return c.topology }

// Reduction reports whether this is a reduction cell.
func (c *Cell[B]) Reduction() bool { return c.cfg.Reduction }

// OutChannels returns Multiplier·Ch.
func (c *Cell[B]) OutChannels() int { return c.cfg.Multiplier * c.cfg.Ch }

// NumMixedOps returns the number of edges.
func (c *Cell[B]) NumMixedOps() int { return len(c.ops) }

// MixedOp returns the mixed op on edge i.
func (c *Cell[B]) MixedOp(i int) *MixedOp[B] { return c.ops[i] }

// SetTraining switches every batch norm in the cell.
func (c *Cell[B]) SetTraining(training bool) {
	nn.SetTraining(training, c.preprocess0, c.preprocess1)
	for _, op := range c.ops {
		op.SetTraining(training)
	}
}

// Parameters returns the cell weights.
func (c *Cell[B]) Parameters() []*nn.Parameter[B] {
	params := append(c.preprocess0.Parameters(), c.preprocess1.Parameters()...)
	for _, op := range c.ops {
		params = append(params, op.Parameters()...)
	}
	return params
}

// StateDict returns the cell state.
func (c *Cell[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(stateDict, "preprocess0", c.preprocess0.StateDict())
	nn.MergeStateDict(stateDict, "preprocess1", c.preprocess1.StateDict())
	for i, op := range c.ops {
		nn.MergeStateDict(stateDict, "ops."+strconv.Itoa(i), op.StateDict())
	}
	return stateDict
}

// LoadStateDict loads the cell state.
func (c *Cell[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := c.preprocess0.LoadStateDict(nn.SubStateDict(stateDict, "preprocess0")); err != nil {
		return errors.Wrap(err, "preprocess0")
	}
	if err := c.preprocess1.LoadStateDict(nn.SubStateDict(stateDict, "preprocess1")); err != nil {
		return errors.Wrap(err, "preprocess1")
	}
	for i, op := range c.ops {
		if err := op.LoadStateDict(nn.SubStateDict(stateDict, "ops."+strconv.Itoa(i))); err != nil {
			return errors.Wrapf(err, "ops.%d", i)
		}
	}
	return nil
}
