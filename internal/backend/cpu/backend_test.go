package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/nas/internal/parallel"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(data, tensor.Shape(shape))
	require.NoError(t, err)
	return r
}

func seq(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

func TestAdd_Broadcast(t *testing.T) {
	backend := New()

	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float32{10, 20, 30}, 3)

	got := backend.Add(a, b)
	assert.Equal(t, tensor.Shape{2, 3}, got.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, got.Data())

	col := raw(t, []float32{100, 200}, 2, 1)
	got = backend.Add(a, col)
	assert.Equal(t, []float32{101, 102, 103, 204, 205, 206}, got.Data())
}

func TestAdd_Incompatible(t *testing.T) {
	backend := New()
	assert.Panics(t, func() {
		backend.Add(raw(t, seq(6), 2, 3), raw(t, seq(4), 4))
	})
}

func TestScalarOps(t *testing.T) {
	backend := New()
	x := raw(t, []float32{-1, 0, 2}, 3)

	assert.Equal(t, []float32{-2, 0, 4}, backend.MulScalar(x, 2).Data())
	assert.Equal(t, []float32{0, 1, 3}, backend.AddScalar(x, 1).Data())
	assert.Equal(t, []float32{0, 0, 2}, backend.ReLU(x).Data())
	assert.Equal(t, []float32{-1, 0, 2}, x.Data(), "inputs are never mutated")
}

func TestTranspose(t *testing.T) {
	backend := New()
	x := raw(t, seq(6), 2, 3)

	got := backend.Transpose(x, 1, 0)
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, got.Data())

	assert.Panics(t, func() { backend.Transpose(x, 0, 0) })
}

func TestCatNarrow(t *testing.T) {
	backend := New()
	a := raw(t, seq(4), 2, 2)
	b := raw(t, []float32{10, 11, 12, 13, 14, 15}, 2, 3)

	cat := backend.Cat([]*tensor.RawTensor{a, b}, -1)
	assert.Equal(t, tensor.Shape{2, 5}, cat.Shape())
	assert.Equal(t, []float32{0, 1, 10, 11, 12, 2, 3, 13, 14, 15}, cat.Data())

	back := backend.Narrow(cat, 1, 2, 3)
	assert.Equal(t, b.Data(), back.Data())
	assert.Equal(t, a.Data(), backend.Narrow(cat, 1, 0, 2).Data())

	assert.Panics(t, func() { backend.Narrow(cat, 1, 4, 2) })
}

func TestSoftmax_SumsToOne(t *testing.T) {
	backend := New()

	tests := []struct {
		name string
		data []float32
	}{
		{name: "small", data: []float32{0.1, -0.3, 2, 0.5}},
		{name: "large_magnitude", data: []float32{1000, -1000, 999, 500}},
		{name: "equal", data: []float32{3, 3, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := backend.Softmax(raw(t, tt.data, 2, 2), 1).Data()
			for r := 0; r < 2; r++ {
				sum := float64(got[2*r] + got[2*r+1])
				assert.InDelta(t, 1.0, sum, 1e-6)
			}
			for _, v := range got {
				assert.False(t, math.IsNaN(float64(v)))
			}
		})
	}

	uniform := backend.Softmax(raw(t, []float32{5, 5, 5, 5}, 4), 0).Data()
	for _, v := range uniform {
		assert.InDelta(t, 0.25, v, 1e-7)
	}
}

func TestMeanDim(t *testing.T) {
	backend := New()
	x := raw(t, seq(6), 2, 3)

	got := backend.MeanDim(x, 1, false)
	assert.Equal(t, tensor.Shape{2}, got.Shape())
	assert.Equal(t, []float32{1, 4}, got.Data())

	kept := backend.MeanDim(x, 0, true)
	assert.Equal(t, tensor.Shape{1, 3}, kept.Shape())
	assert.Equal(t, []float32{1.5, 2.5, 3.5}, kept.Data())
}

func TestMatMul(t *testing.T) {
	backend := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float32{1, 0, 0, 1, 1, 1}, 3, 2)

	got := backend.MatMul(a, b)
	assert.Equal(t, tensor.Shape{2, 2}, got.Shape())
	assert.Equal(t, []float32{4, 5, 10, 11}, got.Data())

	assert.Panics(t, func() { backend.MatMul(a, a) })
}

func TestChannelMoments_BatchNorm(t *testing.T) {
	backend := New()
	// [N=1, H=2, W=1, C=2]: channel 0 = {1, 3}, channel 1 = {2, 6}
	x := raw(t, []float32{1, 2, 3, 6}, 1, 2, 1, 2)

	mean, variance := backend.ChannelMoments(x)
	assert.Equal(t, []float32{2, 4}, mean.Data())
	assert.Equal(t, []float32{1, 4}, variance.Data())

	out := backend.BatchNorm(x, mean, variance, nil, nil, 0)
	assert.InDeltaSlice(t, []float32{-1, -1, 1, 1}, out.Data(), 1e-6)

	gamma := raw(t, []float32{2, 1}, 2)
	beta := raw(t, []float32{0, 5}, 2)
	out = backend.BatchNorm(x, mean, variance, gamma, beta, 0)
	assert.InDeltaSlice(t, []float32{-2, 4, 2, 6}, out.Data(), 1e-6)
}

func TestConv2D_Identity1x1(t *testing.T) {
	backend := New()
	x := raw(t, seq(2*3*3*2), 2, 3, 3, 2)
	// 1x1 kernel swapping the two channels
	k := raw(t, []float32{0, 1, 1, 0}, 1, 1, 2, 2)

	got := backend.Conv2D(x, k, tensor.ConvParams{})
	require.Equal(t, tensor.Shape{2, 3, 3, 2}, got.Shape())
	in, out := x.Data(), got.Data()
	for i := 0; i < len(in); i += 2 {
		assert.Equal(t, in[i+1], out[i])
		assert.Equal(t, in[i], out[i+1])
	}
}

func TestConv2D_SamePaddingSum(t *testing.T) {
	backend := New()
	x := raw(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, 1, 3, 3, 1)
	k := raw(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, 3, 3, 1, 1)

	got := backend.Conv2D(x, k, tensor.ConvParams{Padding: tensor.PaddingSame})
	// Corners see 4 cells, edges 6, center 9
	assert.Equal(t, []float32{4, 6, 4, 6, 9, 6, 4, 6, 4}, got.Data())

	strided := backend.Conv2D(x, k, tensor.ConvParams{Stride: 2, Padding: tensor.PaddingSame})
	assert.Equal(t, tensor.Shape{1, 2, 2, 1}, strided.Shape())
	assert.Equal(t, []float32{4, 4, 4, 4}, strided.Data())
}

func TestConv2D_DilatedDepthwise(t *testing.T) {
	backend := New()
	// Two channels; channel 1 is 10x channel 0
	data := make([]float32, 5*5*2)
	for i := 0; i < 25; i++ {
		data[2*i] = float32(i)
		data[2*i+1] = float32(10 * i)
	}
	x := raw(t, data, 1, 5, 5, 2)

	// 3x3 depthwise, only the center tap and the top-left tap set
	k := make([]float32, 3*3*1*2)
	k[(0*3+0)*2+0], k[(0*3+0)*2+1] = 1, 1
	k[(1*3+1)*2+0], k[(1*3+1)*2+1] = 1, 1
	kernel := raw(t, k, 3, 3, 1, 2)

	got := backend.Conv2D(x, kernel, tensor.ConvParams{Dilation: 2, Groups: 2, Padding: tensor.PaddingSame})
	require.Equal(t, tensor.Shape{1, 5, 5, 2}, got.Shape())

	// Output (2,2): center (2,2)=12 plus top-left tap at (0,0)=0
	assert.Equal(t, float32(12), got.Data()[(2*5+2)*2])
	assert.Equal(t, float32(120), got.Data()[(2*5+2)*2+1])
	// Output (4,4): center 24 plus (2,2)=12
	assert.Equal(t, float32(36), got.Data()[(4*5+4)*2])
}

func TestConv2D_ParallelMatchesSequential(t *testing.T) {
	x := make([]float32, 2*6*6*4)
	for i := range x {
		x[i] = float32(math.Sin(float64(i)))
	}
	k := make([]float32, 3*3*4*8)
	for i := range k {
		k[i] = float32(math.Cos(float64(i)))
	}

	in, kernel := raw(t, x, 2, 6, 6, 4), raw(t, k, 3, 3, 4, 8)
	params := tensor.ConvParams{Stride: 2, Padding: tensor.PaddingSame}

	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}).Conv2D(in, kernel, params)
	sq := NewWithConfig(parallel.Sequential()).Conv2D(in, kernel, params)
	assert.Equal(t, sq.Data(), par.Data())
}

func TestConv2D_Panics(t *testing.T) {
	backend := New()
	x := raw(t, seq(16), 1, 2, 2, 4)

	assert.Panics(t, func() {
		backend.Conv2D(x, raw(t, seq(3*8), 1, 1, 3, 8), tensor.ConvParams{})
	})
	assert.Panics(t, func() {
		backend.Conv2D(x, raw(t, seq(4), 1, 1, 1, 4), tensor.ConvParams{Groups: 3})
	})
}

func TestPool2D(t *testing.T) {
	backend := New()
	x := raw(t, seq(16), 1, 4, 4, 1)

	maxp := backend.MaxPool2D(x, tensor.PoolParams{Kernel: 2, Stride: 2, Padding: tensor.PaddingValid})
	assert.Equal(t, tensor.Shape{1, 2, 2, 1}, maxp.Shape())
	assert.Equal(t, []float32{5, 7, 13, 15}, maxp.Data())

	same := backend.MaxPool2D(x, tensor.PoolParams{Kernel: 3, Stride: 1, Padding: tensor.PaddingSame})
	assert.Equal(t, tensor.Shape{1, 4, 4, 1}, same.Shape())
	assert.Equal(t, float32(5), same.Data()[0])

	avg := backend.AvgPool2D(x, tensor.PoolParams{Kernel: 3, Stride: 1, Padding: tensor.PaddingSame})
	// Corner window covers {0, 1, 4, 5}: padding excluded from the count
	assert.InDelta(t, 2.5, avg.Data()[0], 1e-6)
	// Interior window (1,1) covers rows 0-2, cols 0-2
	assert.InDelta(t, 5.0, avg.Data()[5], 1e-6)

	negative := raw(t, []float32{-5, -4, -3, -2}, 1, 2, 2, 1)
	padded := backend.MaxPool2D(negative, tensor.PoolParams{Kernel: 3, Stride: 2, Padding: tensor.PaddingSame})
	assert.Equal(t, []float32{-2}, padded.Data(), "padding never wins a max")
}
