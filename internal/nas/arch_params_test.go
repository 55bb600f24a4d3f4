package nas

import (
	"math"
	"testing"

	"github.com/born-ml/nas/internal/backend/cpu"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArchParams(t *testing.T) {
	backend := cpu.New()
	arch := NewArchParams(4, newRNG(), backend)

	params := arch.Parameters()
	require.Len(t, params, 4)
	names := []string{"alphas_normal", "alphas_reduce", "betas_normal", "betas_reduce"}
	shapes := []tensor.Shape{{14, 8}, {14, 8}, {14}, {14}}
	for i, p := range params {
		assert.Equal(t, names[i], p.Name())
		assert.Equal(t, shapes[i], p.Tensor().Shape())
		for _, v := range p.Tensor().Data() {
			assert.Less(t, math.Abs(float64(v)), 1e-2)
		}
	}

	// Returned by reference.
	assert.Same(t, arch.AlphasNormal, params[0])
	params[2].Tensor().Data()[0] = 5
	assert.Equal(t, float32(5), arch.BetasNormal.Tensor().Data()[0])
}

func TestArchParams_Deterministic(t *testing.T) {
	backend := cpu.New()
	a := NewArchParams(4, newRNG(), backend)
	b := NewArchParams(4, newRNG(), backend)
	assert.Equal(t, a.AlphasReduce.Tensor().Data(), b.AlphasReduce.Tensor().Data())
}

func TestSoftmaxAlphas_RowSums(t *testing.T) {
	backend := cpu.New()
	data := make([]float32, 3*NumPrimitives)
	for i := range data {
		switch i / NumPrimitives {
		case 0:
			data[i] = float32(i) * 1e4 // large magnitudes
		case 1:
			data[i] = -3e4 + float32(i%3)*2e4
		default:
			data[i] = 0.5 // equal
		}
	}
	alphas, err := tensor.FromSlice(data, tensor.Shape{3, NumPrimitives}, backend)
	require.NoError(t, err)

	w, err := SoftmaxAlphas(alphas)
	require.NoError(t, err)
	out := w.Data()
	for r := 0; r < 3; r++ {
		sum := 0.0
		for _, v := range out[r*NumPrimitives : (r+1)*NumPrimitives] {
			require.False(t, math.IsNaN(float64(v)))
			sum += float64(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-6, "row %d", r)
	}
	for _, v := range out[2*NumPrimitives:] {
		assert.InDelta(t, 1.0/NumPrimitives, v, 1e-7)
	}

	_, err = SoftmaxAlphas(tensor.Zeros(tensor.Shape{3, 7}, backend))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSplitSoftmax_SliceSums(t *testing.T) {
	backend := cpu.New()
	data := []float32{
		1e4, -1e4, // node 0
		0, 0, 0, // node 1
		5e3, 5e3, -2e4, 1, // node 2
		-1, 2, -3, 4, 1e4, // node 3
	}
	betas, err := tensor.FromSlice(data, tensor.Shape{14}, backend)
	require.NoError(t, err)

	ew, err := SplitSoftmax(betas, NodeSizes(4))
	require.NoError(t, err)
	out := ew.Data()

	offset := 0
	for _, n := range NodeSizes(4) {
		sum := 0.0
		for _, v := range out[offset : offset+n] {
			sum += float64(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
		offset += n
	}
	assert.InDelta(t, 1.0/3, out[2], 1e-7)
	assert.InDelta(t, 0.5, out[5], 1e-6)

	_, err = SplitSoftmax(betas, []int{2, 3, 4})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = SplitSoftmax(betas, []int{2, 0, 12})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestArchParams_StateDict(t *testing.T) {
	backend := cpu.New()
	src := NewArchParams(4, newRNG(), backend)
	dst := NewArchParams(4, randRNG(3), backend)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, src.BetasReduce.Tensor().Data(), dst.BetasReduce.Tensor().Data())

	small := NewArchParams(2, newRNG(), backend)
	assert.ErrorIs(t, small.LoadStateDict(src.StateDict()), ErrShapeMismatch)

	sd := src.StateDict()
	delete(sd, "betas_normal")
	assert.Error(t, dst.LoadStateDict(sd))
}
