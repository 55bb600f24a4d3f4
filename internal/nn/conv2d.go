package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/nas/internal/tensor"
)

// Conv2DConfig configures a Conv2D layer. Zero Stride, Dilation and Groups
// default to 1.
type Conv2DConfig struct {
	InChannels  int
	OutChannels int
	KernelSize  int
	Stride      int
	Dilation    int
	Groups      int
	Padding     tensor.Padding
	UseBias     bool
	WeightDecay float32
}

// Conv2D is a 2D convolutional layer over NHWC input.
//
// Input shape:  [batch, height, width, in_channels]
// Weight shape: [kernel, kernel, in_channels/groups, out_channels]
// Output shape: [batch, out_h, out_w, out_channels]
//
// A depthwise convolution is Groups == InChannels == OutChannels.
//
// Example:
//
//	conv := nn.NewConv2D(nn.Conv2DConfig{InChannels: 3, OutChannels: 48, KernelSize: 3}, rng, backend)
//	output := conv.Forward(input) // [N, H, W, 48]
type Conv2D[B tensor.Backend] struct {
	config Conv2DConfig
	params tensor.ConvParams

	weight *Parameter[B]
	bias   *Parameter[B] // nil unless UseBias

	backend B
}

// NewConv2D creates a new 2D convolutional layer with He-normal weights and
// zero bias.
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, rng *rand.Rand, backend B) *Conv2D[B] {
	params := tensor.ConvParams{
		Stride:   cfg.Stride,
		Dilation: cfg.Dilation,
		Groups:   cfg.Groups,
		Padding:  cfg.Padding,
	}.Normalized()
	cfg.Stride, cfg.Dilation, cfg.Groups = params.Stride, params.Dilation, params.Groups

	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", cfg.InChannels, cfg.OutChannels))
	}
	if cfg.KernelSize <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d", cfg.KernelSize))
	}
	if cfg.Stride < 0 || cfg.Dilation < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d or dilation %d", cfg.Stride, cfg.Dilation))
	}
	if cfg.InChannels%cfg.Groups != 0 || cfg.OutChannels%cfg.Groups != 0 {
		panic(fmt.Sprintf("conv2d: channels in=%d out=%d not divisible by groups=%d",
			cfg.InChannels, cfg.OutChannels, cfg.Groups))
	}

	inPerGroup := cfg.InChannels / cfg.Groups
	weightShape := tensor.Shape{cfg.KernelSize, cfg.KernelSize, inPerGroup, cfg.OutChannels}
	fanIn := cfg.KernelSize * cfg.KernelSize * inPerGroup
	weight := NewParameter("conv2d.weight", HeNormal(fanIn, weightShape, rng, backend)).
		WithWeightDecay(cfg.WeightDecay)

	var bias *Parameter[B]
	if cfg.UseBias {
		bias = NewParameter("conv2d.bias", Zeros(tensor.Shape{cfg.OutChannels}, backend))
	}

	return &Conv2D[B]{
		config:  cfg,
		params:  params,
		weight:  weight,
		bias:    bias,
		backend: backend,
	}
}

// Forward performs the convolution.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,H,W,C], got %dD", len(shape)))
	}
	if shape[3] != c.config.InChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", shape[3], c.config.InChannels))
	}

	output := tensor.New(c.backend.Conv2D(input.Raw(), c.weight.Tensor().Raw(), c.params), c.backend)
	if c.bias != nil {
		output = output.Add(c.bias.Tensor())
	}
	return output
}

// Parameters returns all trainable parameters.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// StateDict returns the layer's tensors keyed by "weight" and "bias".
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := map[string]*tensor.RawTensor{"weight": c.weight.Tensor().Raw()}
	if c.bias != nil {
		stateDict["bias"] = c.bias.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (c *Conv2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadEntry(stateDict, "weight", c.weight.Tensor().Raw()); err != nil {
		return err
	}
	if c.bias != nil {
		return loadEntry(stateDict, "bias", c.bias.Tensor().Raw())
	}
	return nil
}

// Config returns the layer configuration with defaults applied.
func (c *Conv2D[B]) Config() Conv2DConfig {
	return c.config
}

// Weight returns the kernel parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] {
	return c.weight
}

// String returns a string representation of the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in=%d, out=%d, kernel=%d, stride=%d, dilation=%d, groups=%d, padding=%s, bias=%v)",
		c.config.InChannels, c.config.OutChannels, c.config.KernelSize,
		c.config.Stride, c.config.Dilation, c.config.Groups, c.config.Padding, c.bias != nil)
}
