package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/nas/internal/tensor"
)

// ChannelMoments computes the per-channel mean and (biased) variance over
// every axis but the last.
//
// Input shape:  [..., C]
// Output shapes: [C], [C]
func (cpu *CPUBackend) ChannelMoments(x *tensor.RawTensor) (mean, variance *tensor.RawTensor) {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("moments: scalar input")
	}
	C := shape[len(shape)-1]
	count := x.NumElements() / C

	sum := make([]float64, C)
	sumSq := make([]float64, C)
	data := x.Data()
	for i := 0; i < count; i++ {
		row := data[i*C : (i+1)*C]
		for c, v := range row {
			sum[c] += float64(v)
		}
	}

	mean = newResult("moments", tensor.Shape{C})
	m := mean.Data()
	for c := range m {
		m[c] = float32(sum[c] / float64(count))
	}

	// Second pass around the mean for numerical stability
	for i := 0; i < count; i++ {
		row := data[i*C : (i+1)*C]
		for c, v := range row {
			d := float64(v) - float64(m[c])
			sumSq[c] += d * d
		}
	}

	variance = newResult("moments", tensor.Shape{C})
	vd := variance.Data()
	for c := range vd {
		vd[c] = float32(sumSq[c] / float64(count))
	}

	return mean, variance
}

// BatchNorm computes (x - mean) / sqrt(variance + eps) * gamma + beta per
// channel. gamma and beta may be nil for a non-affine normalization.
func (cpu *CPUBackend) BatchNorm(x, mean, variance, gamma, beta *tensor.RawTensor, eps float32) *tensor.RawTensor {
	shape := x.Shape()
	C := shape[len(shape)-1]
	for name, p := range map[string]*tensor.RawTensor{"mean": mean, "variance": variance, "gamma": gamma, "beta": beta} {
		if p != nil && p.NumElements() != C {
			panic(fmt.Sprintf("batchnorm: %s has %d elements, expected %d", name, p.NumElements(), C))
		}
	}

	scale := make([]float32, C)
	shift := make([]float32, C)
	m, v := mean.Data(), variance.Data()
	for c := 0; c < C; c++ {
		inv := float32(1 / math.Sqrt(float64(v[c])+float64(eps)))
		g := float32(1)
		if gamma != nil {
			g = gamma.Data()[c]
		}
		b := float32(0)
		if beta != nil {
			b = beta.Data()[c]
		}
		scale[c] = inv * g
		shift[c] = b - m[c]*inv*g
	}

	result := newResult("batchnorm", shape)
	out := result.Data()
	data := x.Data()
	for i := 0; i < len(data); i += C {
		for c := 0; c < C; c++ {
			out[i+c] = data[i+c]*scale[c] + shift[c]
		}
	}

	return result
}
