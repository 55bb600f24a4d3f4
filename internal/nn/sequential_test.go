package nn

import (
	"math/rand"
	"testing"

	"github.com/born-ml/nas/internal/backend/cpu"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlock(rng *rand.Rand, backend *cpu.CPUBackend) *Sequential[*cpu.CPUBackend] {
	return NewSequential[*cpu.CPUBackend](
		NewReLU[*cpu.CPUBackend](),
		NewConv2D(Conv2DConfig{InChannels: 3, OutChannels: 4, KernelSize: 1, WeightDecay: 1e-3}, rng, backend),
		NewBatchNorm2D(4, true, backend),
	)
}

func TestSequential_Forward(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	block := newBlock(rng, backend)

	out := block.Forward(tensor.Randn(tensor.Shape{2, 4, 4, 3}, rng, backend))
	assert.Equal(t, tensor.Shape{2, 4, 4, 4}, out.Shape())
	assert.Equal(t, 3, block.Len())
	assert.Len(t, block.Parameters(), 3)
	assert.Panics(t, func() { block.Module(3) })
}

func TestSequential_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	src := newBlock(rand.New(rand.NewSource(1)), backend)
	dst := newBlock(rand.New(rand.NewSource(2)), backend)

	sd := src.StateDict()
	assert.Contains(t, sd, "1.weight")
	assert.Contains(t, sd, "2.moving_mean")
	assert.Contains(t, sd, "2.gamma")

	require.NoError(t, dst.LoadStateDict(sd))
	assert.Equal(t, sd["1.weight"].Data(), dst.StateDict()["1.weight"].Data())

	delete(sd, "1.weight")
	assert.Error(t, dst.LoadStateDict(sd))
}

func TestSequential_SetTraining(t *testing.T) {
	backend := cpu.New()
	block := newBlock(rand.New(rand.NewSource(1)), backend)

	SetTraining(false, block)
	bn, ok := block.Module(2).(*BatchNorm2D[*cpu.CPUBackend])
	require.True(t, ok)
	assert.False(t, bn.Training())
}

func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	l := NewLinear(3, 2, 0, rand.New(rand.NewSource(1)), backend)

	w := l.Parameters()[0].Tensor().Data()
	copy(w, []float32{1, 0, 0, 1, 1, 1})
	l.Parameters()[1].Tensor().Data()[0] = 0.5

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	out := l.Forward(x)
	assert.Equal(t, tensor.Shape{1, 2}, out.Shape())
	assert.Equal(t, []float32{4.5, 5}, out.Data())
	assert.Panics(t, func() { l.Forward(tensor.Zeros(tensor.Shape{1, 4}, backend)) })
}

func TestPooling_Shapes(t *testing.T) {
	backend := cpu.New()
	x := tensor.Ones(tensor.Shape{1, 8, 8, 2}, backend)

	maxp := NewMaxPool2D[*cpu.CPUBackend](tensor.PoolParams{Kernel: 3, Stride: 2, Padding: tensor.PaddingSame})
	avgp := NewAvgPool2D[*cpu.CPUBackend](tensor.PoolParams{Kernel: 3, Stride: 1, Padding: tensor.PaddingSame})
	gap := NewGlobalAvgPool2D[*cpu.CPUBackend]()

	assert.Equal(t, tensor.Shape{1, 4, 4, 2}, maxp.Forward(x).Shape())
	assert.Equal(t, tensor.Shape{1, 8, 8, 2}, avgp.Forward(x).Shape())
	assert.Equal(t, []float32{1, 1}, gap.Forward(x).Data())
	assert.Panics(t, func() { NewMaxPool2D[*cpu.CPUBackend](tensor.PoolParams{Kernel: 0, Stride: 1}) })
}

func TestL2Penalty(t *testing.T) {
	backend := cpu.New()
	w, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{10}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	params := []*Parameter[*cpu.CPUBackend]{
		NewParameter("w", w).WithWeightDecay(0.5),
		NewParameter("b", b),
	}
	assert.InDelta(t, 2.5, L2Penalty(params), 1e-6)
}
