package nn

import (
	"math/rand"
	"testing"

	"github.com/born-ml/nas/internal/backend/cpu"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConv2D_Creation(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	conv := NewConv2D(Conv2DConfig{InChannels: 8, OutChannels: 8, KernelSize: 3, Groups: 8, WeightDecay: 3e-4}, rng, backend)

	cfg := conv.Config()
	assert.Equal(t, 1, cfg.Stride)
	assert.Equal(t, 1, cfg.Dilation)
	assert.Equal(t, tensor.Shape{3, 3, 1, 8}, conv.Weight().Tensor().Shape())
	assert.Equal(t, float32(3e-4), conv.Weight().WeightDecay())
	assert.Len(t, conv.Parameters(), 1)
}

func TestConv2D_ForwardShape(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name string
		cfg  Conv2DConfig
		want tensor.Shape
	}{
		{name: "same", cfg: Conv2DConfig{InChannels: 3, OutChannels: 6, KernelSize: 3}, want: tensor.Shape{2, 8, 8, 6}},
		{name: "stride2", cfg: Conv2DConfig{InChannels: 3, OutChannels: 6, KernelSize: 3, Stride: 2}, want: tensor.Shape{2, 4, 4, 6}},
		{name: "valid", cfg: Conv2DConfig{InChannels: 3, OutChannels: 4, KernelSize: 5, Padding: tensor.PaddingValid}, want: tensor.Shape{2, 4, 4, 4}},
		{name: "dilated", cfg: Conv2DConfig{InChannels: 3, OutChannels: 3, KernelSize: 5, Dilation: 2, Groups: 3}, want: tensor.Shape{2, 8, 8, 3}},
	}

	input := tensor.Randn(tensor.Shape{2, 8, 8, 3}, rng, backend)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConv2D(tt.cfg, rng, backend)
			assert.Equal(t, tt.want, conv.Forward(input).Shape())
		})
	}
}

func TestConv2D_Bias(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	conv := NewConv2D(Conv2DConfig{InChannels: 2, OutChannels: 2, KernelSize: 1, UseBias: true}, rng, backend)
	for i := range conv.Weight().Tensor().Data() {
		conv.Weight().Tensor().Data()[i] = 0
	}
	conv.Parameters()[1].Tensor().Data()[1] = 5

	out := conv.Forward(tensor.Ones(tensor.Shape{1, 2, 2, 2}, backend))
	for i, v := range out.Data() {
		assert.Equal(t, float32(5*(i%2)), v)
	}
}

func TestConv2D_Panics(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	assert.Panics(t, func() {
		NewConv2D(Conv2DConfig{InChannels: 0, OutChannels: 4, KernelSize: 3}, rng, backend)
	})
	assert.Panics(t, func() {
		NewConv2D(Conv2DConfig{InChannels: 6, OutChannels: 4, KernelSize: 3, Groups: 4}, rng, backend)
	})

	conv := NewConv2D(Conv2DConfig{InChannels: 3, OutChannels: 4, KernelSize: 3}, rng, backend)
	assert.Panics(t, func() {
		conv.Forward(tensor.Zeros(tensor.Shape{1, 4, 4, 5}, backend))
	})
}

func TestConv2D_Deterministic(t *testing.T) {
	backend := cpu.New()
	cfg := Conv2DConfig{InChannels: 3, OutChannels: 4, KernelSize: 3}

	a := NewConv2D(cfg, rand.New(rand.NewSource(7)), backend)
	b := NewConv2D(cfg, rand.New(rand.NewSource(7)), backend)
	require.Equal(t, a.Weight().Tensor().Data(), b.Weight().Tensor().Data())
}
