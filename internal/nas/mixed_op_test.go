package nas

import (
	"testing"

	"github.com/born-ml/nas/internal/backend/cpu"
	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformWeights() []float32 {
	w := make([]float32, NumPrimitives)
	for i := range w {
		w[i] = 1.0 / NumPrimitives
	}
	return w
}

func TestMixedOp_Shapes(t *testing.T) {
	backend := cpu.New()
	x := randInput(tensor.Shape{2, 8, 8, 16}, 9, backend)

	tests := []struct {
		stride int
		want   tensor.Shape
	}{
		{1, tensor.Shape{2, 8, 8, 16}},
		{2, tensor.Shape{2, 4, 4, 16}},
	}
	for _, tt := range tests {
		op, err := NewMixedOp(16, tt.stride, 3e-4, newRNG(), backend)
		require.NoError(t, err)

		out, err := op.Forward(x, uniformWeights())
		require.NoError(t, err)
		assert.Equal(t, tt.want, out.Shape(), "stride %d", tt.stride)
	}
}

func TestMixedOp_SkipOnlyIsShuffle(t *testing.T) {
	backend := cpu.New()
	x := randInput(tensor.Shape{2, 4, 4, 8}, 10, backend)

	op, err := NewMixedOp(8, 1, 0, newRNG(), backend)
	require.NoError(t, err)

	weights := make([]float32, NumPrimitives)
	weights[SkipConnect] = 1
	out, err := op.Forward(x, weights)
	require.NoError(t, err)

	want, err := ChannelShuffle(x, PartialChannels)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Data(), out.Data(), 1e-6)
}

func TestMixedOp_PoolsFollowedByBN(t *testing.T) {
	backend := cpu.New()
	op, err := NewMixedOp(8, 1, 0, newRNG(), backend)
	require.NoError(t, err)

	for _, p := range []Primitive{MaxPool3x3, AvgPool3x3} {
		seq, ok := op.Op(p).(*nn.Sequential[testBackend])
		require.True(t, ok, p.String())
		bn, ok := seq.Module(1).(*nn.BatchNorm2D[testBackend])
		require.True(t, ok, p.String())
		assert.False(t, bn.Affine())
	}

	sd := op.StateDict()
	assert.Contains(t, sd, "max_pool_3x3.1.moving_mean")
	assert.Contains(t, sd, "sep_conv_3x3.0.1.weight")
}

func TestMixedOp_SetTraining(t *testing.T) {
	backend := cpu.New()
	op, err := NewMixedOp(8, 1, 0, newRNG(), backend)
	require.NoError(t, err)

	op.SetTraining(false)
	bn := op.Op(AvgPool3x3).(*nn.Sequential[testBackend]).Module(1).(*nn.BatchNorm2D[testBackend])
	assert.False(t, bn.Training())
}

func TestMixedOp_Errors(t *testing.T) {
	backend := cpu.New()

	_, err := NewMixedOp(6, 1, 0, newRNG(), backend)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	op, err := NewMixedOp(8, 1, 0, newRNG(), backend)
	require.NoError(t, err)

	_, err = op.Forward(randInput(tensor.Shape{1, 4, 4, 12}, 11, backend), uniformWeights())
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = op.Forward(randInput(tensor.Shape{1, 4, 4, 8}, 11, backend), []float32{1, 0, 0})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
