package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/nas/internal/parallel"
	"github.com/born-ml/nas/internal/tensor"
)

type poolKind int

const (
	poolMax poolKind = iota
	poolAvg
)

// MaxPool2D takes the maximum over each window. Padded cells never win.
//
// Input shape:  [N, H, W, C]
// Output shape: [N, H_out, W_out, C]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, params tensor.PoolParams) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, params, poolMax)
}

// AvgPool2D averages each window over the cells inside the input only, so
// border outputs under SAME padding are not biased towards zero.
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, params tensor.PoolParams) *tensor.RawTensor {
	return cpu.pool2d("avgpool2d", input, params, poolAvg)
}

func (cpu *CPUBackend) pool2d(op string, input *tensor.RawTensor, params tensor.PoolParams, kind poolKind) *tensor.RawTensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,H,W,C], got %dD", op, len(shape)))
	}
	N, H, W, C := shape[0], shape[1], shape[2], shape[3]

	HOut, padTop, err := tensor.WindowOutput(H, params.Kernel, params.Stride, 1, params.Padding)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	WOut, padLeft, err := tensor.WindowOutput(W, params.Kernel, params.Stride, 1, params.Padding)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	output := newResult(op, tensor.Shape{N, HOut, WOut, C})
	in := input.Data()
	out := output.Data()

	parallel.For(N*HOut, func(row int) {
		n, oh := row/HOut, row%HOut
		hStart := oh*params.Stride - padTop
		hEnd := min(hStart+params.Kernel, H)
		hStart = max(hStart, 0)

		acc := make([]float32, C)
		for ow := 0; ow < WOut; ow++ {
			wStart := ow*params.Stride - padLeft
			wEnd := min(wStart+params.Kernel, W)
			wStart = max(wStart, 0)

			init := float32(0)
			if kind == poolMax {
				init = float32(math.Inf(-1))
			}
			for c := range acc {
				acc[c] = init
			}

			for ih := hStart; ih < hEnd; ih++ {
				for iw := wStart; iw < wEnd; iw++ {
					cell := in[((n*H+ih)*W+iw)*C : ((n*H+ih)*W+iw+1)*C]
					if kind == poolMax {
						for c, v := range cell {
							if v > acc[c] {
								acc[c] = v
							}
						}
					} else {
						for c, v := range cell {
							acc[c] += v
						}
					}
				}
			}

			dst := out[((n*HOut+oh)*WOut+ow)*C : ((n*HOut+oh)*WOut+ow+1)*C]
			if kind == poolAvg {
				count := float32((hEnd - hStart) * (wEnd - wStart))
				for c := range acc {
					dst[c] = acc[c] / count
				}
				continue
			}
			copy(dst, acc)
		}
	}, cpu.parallel)

	return output
}
