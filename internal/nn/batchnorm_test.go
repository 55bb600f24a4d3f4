package nn

import (
	"math/rand"
	"testing"

	"github.com/born-ml/nas/internal/backend/cpu"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchNorm2D_TrainingNormalizes(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))

	bn := NewBatchNorm2D(4, false, backend)
	x := tensor.Randn(tensor.Shape{2, 3, 3, 4}, rng, backend).MulScalar(5).AddScalar(2)

	out := bn.Forward(x)
	mean, variance := backend.ChannelMoments(out.Raw())
	for c := 0; c < 4; c++ {
		assert.InDelta(t, 0, mean.Data()[c], 1e-5)
		assert.InDelta(t, 1, variance.Data()[c], 1e-3)
	}

	assert.Empty(t, bn.Parameters())
	assert.NotContains(t, bn.StateDict(), "gamma")
}

func TestBatchNorm2D_MovingStatistics(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D(1, true, backend)

	x, err := tensor.FromSlice([]float32{1, 3}, tensor.Shape{1, 2, 1, 1}, backend)
	require.NoError(t, err)

	bn.Forward(x)
	sd := bn.StateDict()
	assert.InDelta(t, 0.2, sd["moving_mean"].Data()[0], 1e-6)     // 0.9*0 + 0.1*2
	assert.InDelta(t, 1.0, sd["moving_variance"].Data()[0], 1e-6) // 0.9*1 + 0.1*1

	bn.SetTraining(false)
	assert.False(t, bn.Training())
	out := bn.Forward(x)
	// (1 - 0.2) / sqrt(1 + eps)
	assert.InDelta(t, 0.8, out.Data()[0], 1e-4)
}

func TestBatchNorm2D_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	src := NewBatchNorm2D(2, true, backend)
	src.gamma.Tensor().Data()[0] = 3
	src.movingMean.Data()[1] = 7

	dst := NewBatchNorm2D(2, true, backend)
	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, float32(3), dst.gamma.Tensor().Data()[0])
	assert.Equal(t, float32(7), dst.movingMean.Data()[1])

	assert.Error(t, dst.LoadStateDict(map[string]*tensor.RawTensor{}))
}
