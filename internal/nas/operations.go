package nas

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// OpConfig sizes a candidate operation.
type OpConfig struct {
	Channels    int     // input and output channels
	Stride      int     // 1, or 2 on reduction edges
	WeightDecay float32 // L2 coefficient for every kernel
	Affine      bool    // learnable scale/shift in batch norms
}

type opFamily int

const (
	familyZero opFamily = iota
	familyMaxPool
	familyAvgPool
	familySkip
	familySepConv
	familyDilConv
)

type opSpec struct {
	family   opFamily
	kernel   int
	dilation int
}

// primitiveSpecs is the fixed primitive -> constructor mapping.
var primitiveSpecs = [NumPrimitives]opSpec{
	None:        {family: familyZero},
	MaxPool3x3:  {family: familyMaxPool, kernel: 3},
	AvgPool3x3:  {family: familyAvgPool, kernel: 3},
	SkipConnect: {family: familySkip},
	SepConv3x3:  {family: familySepConv, kernel: 3, dilation: 1},
	SepConv5x5:  {family: familySepConv, kernel: 5, dilation: 1},
	DilConv3x3:  {family: familyDilConv, kernel: 3, dilation: 2},
	DilConv5x5:  {family: familyDilConv, kernel: 5, dilation: 2},
}

// NewOperation builds the module for primitive p.
func NewOperation[B tensor.Backend](p Primitive, cfg OpConfig, rng *rand.Rand, backend B) (nn.Module[B], error) {
	if !p.Valid() {
		return nil, errors.Wrapf(ErrUnknownPrimitive, "%d", int(p))
	}
	if cfg.Channels <= 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%s: invalid channels %d", p, cfg.Channels)
	}
	if cfg.Stride != 1 && cfg.Stride != 2 {
		return nil, errors.Errorf("%s: stride must be 1 or 2, got %d", p, cfg.Stride)
	}

	spec := primitiveSpecs[p]
	pool := tensor.PoolParams{Kernel: spec.kernel, Stride: cfg.Stride, Padding: tensor.PaddingSame}

	switch spec.family {
	case familyZero:
		return NewZero[B](cfg.Stride), nil
	case familyMaxPool:
		return nn.NewMaxPool2D[B](pool), nil
	case familyAvgPool:
		return nn.NewAvgPool2D[B](pool), nil
	case familySkip:
		if cfg.Stride == 1 {
			return NewIdentity[B](), nil
		}
		if cfg.Channels%2 != 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "%s: factorized reduce needs even channels, got %d", p, cfg.Channels)
		}
		return NewFactorizedReduce(cfg.Channels, cfg.Channels, cfg.WeightDecay, cfg.Affine, rng, backend), nil
	case familySepConv:
		return NewSepConv(cfg.Channels, cfg.Channels, spec.kernel, cfg.Stride, cfg.WeightDecay, cfg.Affine, rng, backend), nil
	case familyDilConv:
		return NewDilConv(cfg.Channels, cfg.Channels, spec.kernel, cfg.Stride, spec.dilation, cfg.WeightDecay, cfg.Affine, rng, backend), nil
	default:
		return nil, errors.Wrapf(ErrUnknownPrimitive, "%s", p)
	}
}

// NewReLUConvBN builds ReLU -> k×k conv -> batch norm.
func NewReLUConvBN[B tensor.Backend](in, out, kernel, stride int, wd float32, affine bool, rng *rand.Rand, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		nn.NewReLU[B](),
		nn.NewConv2D(nn.Conv2DConfig{
			InChannels:  in,
			OutChannels: out,
			KernelSize:  kernel,
			Stride:      stride,
			WeightDecay: wd,
		}, rng, backend),
		nn.NewBatchNorm2D(out, affine, backend),
	)
}

// NewDilConv builds ReLU -> depthwise k×k (dilated, strided) -> 1×1 conv -> batch norm.
func NewDilConv[B tensor.Backend](in, out, kernel, stride, dilation int, wd float32, affine bool, rng *rand.Rand, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		nn.NewReLU[B](),
		nn.NewConv2D(nn.Conv2DConfig{
			InChannels:  in,
			OutChannels: in,
			KernelSize:  kernel,
			Stride:      stride,
			Dilation:    dilation,
			Groups:      in,
			WeightDecay: wd,
		}, rng, backend),
		nn.NewConv2D(nn.Conv2DConfig{
			InChannels:  in,
			OutChannels: out,
			KernelSize:  1,
			WeightDecay: wd,
		}, rng, backend),
		nn.NewBatchNorm2D(out, affine, backend),
	)
}

// NewSepConv builds two stacked separable convolutions; only the first is strided.
func NewSepConv[B tensor.Backend](in, out, kernel, stride int, wd float32, affine bool, rng *rand.Rand, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		NewDilConv(in, in, kernel, stride, 1, wd, affine, rng, backend),
		NewDilConv(in, out, kernel, 1, 1, wd, affine, rng, backend),
	)
}

// Zero outputs zeros shaped like x[:, ::stride, ::stride, :].
type Zero[B tensor.Backend] struct {
	stride int
}

// NewZero creates a Zero operation.
func NewZero[B tensor.Backend](stride int) *Zero[B] {
	return &Zero[B]{stride: stride}
}

// Forward returns a zero tensor of the strided input shape.
func (z *Zero[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("zero: expected 4D input [N,H,W,C], got %dD", len(shape)))
	}
	out := tensor.Shape{
		shape[0],
		(shape[1] + z.stride - 1) / z.stride,
		(shape[2] + z.stride - 1) / z.stride,
		shape[3],
	}
	return tensor.Zeros(out, input.Backend())
}

// Parameters returns an empty slice.
func (z *Zero[B]) Parameters() []*nn.Parameter[B] { return []*nn.Parameter[B]{} }

// StateDict returns an empty map.
func (z *Zero[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (z *Zero[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Identity returns its input.
type Identity[B tensor.Backend] struct{}

// NewIdentity creates an Identity operation.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return &Identity[B]{}
}

// Forward returns input unchanged.
func (i *Identity[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] { return input }

// Parameters returns an empty slice.
func (i *Identity[B]) Parameters() []*nn.Parameter[B] { return []*nn.Parameter[B]{} }

// StateDict returns an empty map.
func (i *Identity[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (i *Identity[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// FactorizedReduce halves the spatial size with two 1×1 stride-2
// convolutions, the second one reading the input shifted by one pixel, and
// concatenates their outputs. Height and width must be even.
type FactorizedReduce[B tensor.Backend] struct {
	relu  *nn.ReLU[B]
	conv1 *nn.Conv2D[B]
	conv2 *nn.Conv2D[B]
	bn    *nn.BatchNorm2D[B]
}

// NewFactorizedReduce creates a FactorizedReduce block; out must be even.
func NewFactorizedReduce[B tensor.Backend](in, out int, wd float32, affine bool, rng *rand.Rand, backend B) *FactorizedReduce[B] {
	if out%2 != 0 {
		panic(fmt.Sprintf("factorized reduce: output channels %d must be even", out))
	}
	half := nn.Conv2DConfig{
		InChannels:  in,
		OutChannels: out / 2,
		KernelSize:  1,
		Stride:      2,
		Padding:     tensor.PaddingValid,
		WeightDecay: wd,
	}
	return &FactorizedReduce[B]{
		relu:  nn.NewReLU[B](),
		conv1: nn.NewConv2D(half, rng, backend),
		conv2: nn.NewConv2D(half, rng, backend),
		bn:    nn.NewBatchNorm2D(out, affine, backend),
	}
}

// Forward computes bn(cat(conv1(x), conv2(x[:, 1:, 1:, :]))).
func (f *FactorizedReduce[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	if len(shape) != 4 || shape[1]%2 != 0 || shape[2]%2 != 0 {
		panic(fmt.Sprintf("factorized reduce: expected 4D input with even height and width, got %v", shape))
	}
	x := f.relu.Forward(input)
	a := f.conv1.Forward(x)
	shifted := x.Narrow(1, 1, shape[1]-1).Narrow(2, 1, shape[2]-1)
	b := f.conv2.Forward(shifted)
	return f.bn.Forward(tensor.Cat([]*tensor.Tensor[B]{a, b}, 3))
}

// SetTraining switches the batch norm mode.
func (f *FactorizedReduce[B]) SetTraining(training bool) {
	f.bn.SetTraining(training)
}

// Parameters returns the convolution kernels and batch norm parameters.
func (f *FactorizedReduce[B]) Parameters() []*nn.Parameter[B] {
	params := append(f.conv1.Parameters(), f.conv2.Parameters()...)
	return append(params, f.bn.Parameters()...)
}

// StateDict returns the block state under conv_1, conv_2 and bn.
func (f *FactorizedReduce[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(stateDict, "conv_1", f.conv1.StateDict())
	nn.MergeStateDict(stateDict, "conv_2", f.conv2.StateDict())
	nn.MergeStateDict(stateDict, "bn", f.bn.StateDict())
	return stateDict
}

// LoadStateDict loads the block state.
func (f *FactorizedReduce[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	children := map[string]nn.Module[B]{"conv_1": f.conv1, "conv_2": f.conv2, "bn": f.bn}
	for prefix, child := range children {
		if err := child.LoadStateDict(nn.SubStateDict(stateDict, prefix)); err != nil {
			return errors.Wrapf(err, "factorized reduce %s", prefix)
		}
	}
	return nil
}
