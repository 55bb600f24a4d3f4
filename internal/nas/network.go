package nas

import (
	"math/rand"
	"strconv"

	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// imageChannels is the channel count of the RGB input.
const imageChannels = 3

// NetworkConfig sizes a search network.
type NetworkConfig struct {
	Name           string
	InputSize      int // square input height and width
	InitChannels   int
	Layers         int
	NumClasses     int
	WeightDecay    float32
	Steps          int
	Multiplier     int
	StemMultiplier int
}

// DefaultNetworkConfig returns the CIFAR-10 search configuration.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Name:           "PCDARTS_SearchNet",
		InputSize:      32,
		InitChannels:   16,
		Layers:         8,
		NumClasses:     10,
		WeightDecay:    3e-4,
		Steps:          4,
		Multiplier:     4,
		StemMultiplier: 3,
	}
}

// Validate checks the configuration. The input size must survive two
// halvings with even sides and the initial channel count must split into
// PartialChannels groups.
func (c NetworkConfig) Validate() error {
	switch {
	case c.InputSize <= 0 || c.InputSize%4 != 0:
		return errors.Wrapf(ErrInvalidConfig, "input size %d must be a positive multiple of 4", c.InputSize)
	case c.InitChannels <= 0 || c.InitChannels%PartialChannels != 0:
		return errors.Wrapf(ErrInvalidConfig, "init channels %d must be a positive multiple of %d", c.InitChannels, PartialChannels)
	case c.Layers <= 0:
		return errors.Wrapf(ErrInvalidConfig, "layers must be positive, got %d", c.Layers)
	case c.NumClasses <= 0:
		return errors.Wrapf(ErrInvalidConfig, "num classes must be positive, got %d", c.NumClasses)
	case c.Steps <= 0:
		return errors.Wrapf(ErrInvalidConfig, "steps must be positive, got %d", c.Steps)
	case c.Multiplier <= 0 || c.Multiplier > c.Steps:
		return errors.Wrapf(ErrInvalidConfig, "multiplier must be in [1, %d], got %d", c.Steps, c.Multiplier)
	case c.StemMultiplier <= 0:
		return errors.Wrapf(ErrInvalidConfig, "stem multiplier must be positive, got %d", c.StemMultiplier)
	case c.WeightDecay < 0:
		return errors.Wrapf(ErrInvalidConfig, "weight decay must not be negative, got %g", c.WeightDecay)
	}
	return nil
}

// SearchNetwork is the over-parameterized network searched over: a
// convolutional stem, Layers cells sharing one set of architecture
// parameters per cell kind, global average pooling and a linear classifier.
type SearchNetwork[B tensor.Backend] struct {
	cfg        NetworkConfig
	backend    B
	stem       *nn.Sequential[B]
	cells      []*Cell[B]
	pool       *nn.GlobalAvgPool2D[B]
	classifier *nn.Linear[B]
	arch       *ArchParams[B]
}

// NewSearchNetwork builds a search network. All weights and architecture
// parameters are drawn from rng.
func NewSearchNetwork[B tensor.Backend](cfg NetworkConfig, rng *rand.Rand, backend B) (*SearchNetwork[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	klog.Infof("building %s...", cfg.Name)

	net := &SearchNetwork[B]{
		cfg:     cfg,
		backend: backend,
		arch:    NewArchParams(cfg.Steps, rng, backend),
		pool:    nn.NewGlobalAvgPool2D[B](),
	}

	chCurr := cfg.StemMultiplier * cfg.InitChannels
	net.stem = nn.NewSequential[B](
		nn.NewConv2D(nn.Conv2DConfig{
			InChannels:  imageChannels,
			OutChannels: chCurr,
			KernelSize:  3,
			WeightDecay: cfg.WeightDecay,
		}, rng, backend),
		nn.NewBatchNorm2D(chCurr, true, backend),
	)

	chPrevPrev, chPrev, chCurr := chCurr, chCurr, cfg.InitChannels
	reductionPrev := false
	for i := 0; i < cfg.Layers; i++ {
		reduction := IsReduction(i, cfg.Layers)
		if reduction {
			chCurr *= 2
		}
		cell, err := NewCell(CellConfig{
			Steps:         cfg.Steps,
			Multiplier:    cfg.Multiplier,
			ChPrevPrev:    chPrevPrev,
			ChPrev:        chPrev,
			Ch:            chCurr,
			Reduction:     reduction,
			ReductionPrev: reductionPrev,
			WeightDecay:   cfg.WeightDecay,
		}, rng, backend)
		if err != nil {
			return nil, errors.Wrapf(err, "cell %d", i)
		}
		klog.V(1).Infof("cell %d: reduction=%t channels=%d->%d", i, reduction, chPrev, cell.OutChannels())

		net.cells = append(net.cells, cell)
		chPrevPrev, chPrev = chPrev, cell.OutChannels()
		reductionPrev = reduction
	}

	net.classifier = nn.NewLinear(chPrev, cfg.NumClasses, cfg.WeightDecay, rng, backend)
	return net, nil
}

// Forward computes logits [N, NumClasses] for images [N, InputSize,
// InputSize, 3] under the given raw architecture parameters, which are
// normalized here.
func (n *SearchNetwork[B]) Forward(x, alphasNormal, alphasReduce, betasNormal, betasReduce *tensor.Tensor[B]) (*tensor.Tensor[B], error) {
	s := x.Shape()
	if len(s) != 4 || s[1] != n.cfg.InputSize || s[2] != n.cfg.InputSize || s[3] != imageChannels {
		return nil, errors.Wrapf(ErrShapeMismatch, "network: expected [N %d %d %d] input, got %v",
			n.cfg.InputSize, n.cfg.InputSize, imageChannels, s)
	}

	normalW, normalEW, err := normalize(alphasNormal, betasNormal, n.cfg.Steps)
	if err != nil {
		return nil, errors.Wrap(err, "normal architecture")
	}
	reduceW, reduceEW, err := normalize(alphasReduce, betasReduce, n.cfg.Steps)
	if err != nil {
		return nil, errors.Wrap(err, "reduction architecture")
	}

	s0 := n.stem.Forward(x)
	s1 := s0
	for i, cell := range n.cells {
		w, ew := normalW, normalEW
		if cell.Reduction() {
			w, ew = reduceW, reduceEW
		}
		out, err := cell.Forward(s0, s1, w, ew)
		if err != nil {
			return nil, errors.Wrapf(err, "cell %d", i)
		}
		s0, s1 = s1, out
	}

	return n.classifier.Forward(n.pool.Forward(s1)), nil
}

// Predict runs Forward with the network's own architecture parameters.
func (n *SearchNetwork[B]) Predict(x *tensor.Tensor[B]) (*tensor.Tensor[B], error) {
	return n.Forward(x,
		n.arch.AlphasNormal.Tensor(),
		n.arch.AlphasReduce.Tensor(),
		n.arch.BetasNormal.Tensor(),
		n.arch.BetasReduce.Tensor(),
	)
}

// Config returns the network configuration.
func (n *SearchNetwork[B]) Config() NetworkConfig { return n.cfg }

// Backend returns the compute backend.
func (n *SearchNetwork[B]) Backend() B { return n.backend }

// Cells returns the cells in layer order.
func (n *SearchNetwork[B]) Cells() []*Cell[B] { return n.cells }

// Arch returns the architecture parameters.
func (n *SearchNetwork[B]) Arch() *ArchParams[B] { return n.arch }

// ArchParameters returns the four architecture parameters by reference.
func (n *SearchNetwork[B]) ArchParameters() []*nn.Parameter[B] {
	return n.arch.Parameters()
}

// Parameters returns the network weights, excluding architecture parameters.
func (n *SearchNetwork[B]) Parameters() []*nn.Parameter[B] {
	params := n.stem.Parameters()
	for _, cell := range n.cells {
		params = append(params, cell.Parameters()...)
	}
	return append(params, n.classifier.Parameters()...)
}

// NumParameters returns the number of weight elements, excluding
// architecture parameters.
func (n *SearchNetwork[B]) NumParameters() int {
	count := 0
	for _, p := range n.Parameters() {
		count += p.Tensor().NumElements()
	}
	return count
}

// WeightDecayLoss returns Σ wd·Σw² over the network weights.
func (n *SearchNetwork[B]) WeightDecayLoss() float32 {
	return nn.L2Penalty(n.Parameters())
}

// SetTraining switches every batch norm between batch statistics
// (training) and moving statistics (inference).
func (n *SearchNetwork[B]) SetTraining(training bool) {
	n.stem.SetTraining(training)
	for _, cell := range n.cells {
		cell.SetTraining(training)
	}
}

// Genotype discretizes the current architecture parameters.
func (n *SearchNetwork[B]) Genotype() (Genotype, error) {
	return DeriveGenotype(n.arch, n.cfg.Multiplier)
}

// StateDict returns weights, batch norm statistics and architecture
// parameters.
func (n *SearchNetwork[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(stateDict, "stem", n.stem.StateDict())
	for i, cell := range n.cells {
		nn.MergeStateDict(stateDict, "cells."+strconv.Itoa(i), cell.StateDict())
	}
	nn.MergeStateDict(stateDict, "classifier", n.classifier.StateDict())
	nn.MergeStateDict(stateDict, "arch", n.arch.StateDict())
	return stateDict
}

// LoadStateDict restores a state produced by StateDict.
func (n *SearchNetwork[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := n.stem.LoadStateDict(nn.SubStateDict(stateDict, "stem")); err != nil {
		return errors.Wrap(err, "stem")
	}
	for i, cell := range n.cells {
		if err := cell.LoadStateDict(nn.SubStateDict(stateDict, "cells."+strconv.Itoa(i))); err != nil {
			return errors.Wrapf(err, "cells.%d", i)
		}
	}
	if err := n.classifier.LoadStateDict(nn.SubStateDict(stateDict, "classifier")); err != nil {
		return errors.Wrap(err, "classifier")
	}
	if err := n.arch.LoadStateDict(nn.SubStateDict(stateDict, "arch")); err != nil {
		return errors.Wrap(err, "arch")
	}
	return nil
}
