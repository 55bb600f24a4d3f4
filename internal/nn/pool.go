package nn

import (
	"fmt"

	"github.com/born-ml/nas/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer over NHWC input.
//
// Max pooling has no learnable parameters. With PaddingSame and stride s
// the output is ceil(H/s) x ceil(W/s).
//
// Example:
//
//	pool := nn.NewMaxPool2D[Backend](tensor.PoolParams{Kernel: 3, Stride: 1, Padding: tensor.PaddingSame})
type MaxPool2D[B tensor.Backend] struct {
	params tensor.PoolParams
}

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](params tensor.PoolParams) *MaxPool2D[B] {
	validatePool("maxpool2d", params)
	return &MaxPool2D[B]{params: params}
}

// Forward applies max pooling.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	b := input.Backend()
	return tensor.New(b.MaxPool2D(input.Raw(), m.params), b)
}

// Parameters returns an empty slice.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] { return []*Parameter[B]{} }

// StateDict returns an empty map.
func (m *MaxPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (m *MaxPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// AvgPool2D is a 2D average pooling layer over NHWC input. Padded cells are
// excluded from each window's average.
type AvgPool2D[B tensor.Backend] struct {
	params tensor.PoolParams
}

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](params tensor.PoolParams) *AvgPool2D[B] {
	validatePool("avgpool2d", params)
	return &AvgPool2D[B]{params: params}
}

// Forward applies average pooling.
func (a *AvgPool2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	b := input.Backend()
	return tensor.New(b.AvgPool2D(input.Raw(), a.params), b)
}

// Parameters returns an empty slice.
func (a *AvgPool2D[B]) Parameters() []*Parameter[B] { return []*Parameter[B]{} }

// StateDict returns an empty map.
func (a *AvgPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (a *AvgPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// GlobalAvgPool2D averages over the spatial axes: [N, H, W, C] -> [N, C].
type GlobalAvgPool2D[B tensor.Backend] struct{}

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D[B tensor.Backend]() *GlobalAvgPool2D[B] {
	return &GlobalAvgPool2D[B]{}
}

// Forward averages height then width.
func (g *GlobalAvgPool2D[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("globalavgpool2d: expected 4D input [N,H,W,C], got %dD", len(input.Shape())))
	}
	return input.MeanDim(1, false).MeanDim(1, false)
}

// Parameters returns an empty slice.
func (g *GlobalAvgPool2D[B]) Parameters() []*Parameter[B] { return []*Parameter[B]{} }

// StateDict returns an empty map.
func (g *GlobalAvgPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (g *GlobalAvgPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func validatePool(op string, params tensor.PoolParams) {
	if params.Kernel <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d", op, params.Kernel))
	}
	if params.Stride <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %d", op, params.Stride))
	}
}
