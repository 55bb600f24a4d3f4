package cpu

import (
	"math"

	"github.com/born-ml/nas/internal/tensor"
)

// Softmax normalizes x along dim.
//
// The maximum is subtracted before exponentiation and sums are accumulated in
// float64, so large-magnitude inputs stay finite and every slice sums to 1
// within float32 rounding. Equal inputs give a uniform distribution.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = mustDim("softmax", dim, len(shape))
	outer, size, inner := shape.Split(dim)

	result := newResult("softmax", shape)
	in := x.Data()
	out := result.Data()
	exps := make([]float64, size)

	for o := 0; o < outer; o++ {
		for k := 0; k < inner; k++ {
			base := o*size*inner + k

			maxVal := math.Inf(-1)
			for i := 0; i < size; i++ {
				maxVal = math.Max(maxVal, float64(in[base+i*inner]))
			}

			sum := 0.0
			for i := 0; i < size; i++ {
				exps[i] = math.Exp(float64(in[base+i*inner]) - maxVal)
				sum += exps[i]
			}

			for i := 0; i < size; i++ {
				out[base+i*inner] = float32(exps[i] / sum)
			}
		}
	}

	return result
}

// MeanDim averages x along dim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = mustDim("meandim", dim, len(shape))
	outer, size, inner := shape.Split(dim)

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result := newResult("meandim", outShape)
	in := x.Data()
	out := result.Data()

	for o := 0; o < outer; o++ {
		for k := 0; k < inner; k++ {
			sum := 0.0
			for i := 0; i < size; i++ {
				sum += float64(in[(o*size+i)*inner+k])
			}
			out[o*inner+k] = float32(sum / float64(size))
		}
	}

	return result
}
