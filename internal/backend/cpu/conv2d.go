package cpu

import (
	"fmt"

	"github.com/born-ml/nas/internal/parallel"
	"github.com/born-ml/nas/internal/tensor"
)

// Conv2D performs a grouped, dilated 2D convolution.
//
// Input shape:  [N, H, W, C_in]
// Kernel shape: [K_h, K_w, C_in/groups, C_out]
// Output shape: [N, H_out, W_out, C_out]
//
// Output channel block g (of size C_out/groups) only sees input channel block g.
// Depthwise convolution is groups == C_in.
//
// The kernel is a direct accumulation: for each output pixel and each tap,
// an input channel value is multiplied into a contiguous run of output
// channels. With NHWC/HWIO layouts that inner loop is unit-stride on both
// the kernel and the output, which is what makes the direct form competitive
// with im2col for the small kernels used here.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, params tensor.ConvParams) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	p := params.Normalized()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,H,W,C], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [K_h,K_w,C_in/groups,C_out], got %dD", len(kernelShape)))
	}

	N, H, W, CIn := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	KH, KW, CInG, COut := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if CIn%p.Groups != 0 || COut%p.Groups != 0 {
		panic(fmt.Sprintf("conv2d: channels in=%d out=%d not divisible by groups=%d", CIn, COut, p.Groups))
	}
	if CIn/p.Groups != CInG {
		panic(fmt.Sprintf("conv2d: input channels %d / groups %d != kernel channels %d", CIn, p.Groups, CInG))
	}

	HOut, padTop, err := tensor.WindowOutput(H, KH, p.Stride, p.Dilation, p.Padding)
	if err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}
	WOut, padLeft, err := tensor.WindowOutput(W, KW, p.Stride, p.Dilation, p.Padding)
	if err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	output := newResult("conv2d", tensor.Shape{N, HOut, WOut, COut})
	in := input.Data()
	k := kernel.Data()
	out := output.Data()
	COutG := COut / p.Groups

	// One work item per output row
	parallel.For(N*HOut, func(row int) {
		n, oh := row/HOut, row%HOut
		for ow := 0; ow < WOut; ow++ {
			outBase := ((n*HOut+oh)*WOut + ow) * COut
			for kh := 0; kh < KH; kh++ {
				ih := oh*p.Stride - padTop + kh*p.Dilation
				if ih < 0 || ih >= H {
					continue
				}
				for kw := 0; kw < KW; kw++ {
					iw := ow*p.Stride - padLeft + kw*p.Dilation
					if iw < 0 || iw >= W {
						continue
					}
					inBase := ((n*H+ih)*W + iw) * CIn
					tapBase := (kh*KW + kw) * CInG * COut
					for g := 0; g < p.Groups; g++ {
						o := out[outBase+g*COutG : outBase+(g+1)*COutG]
						for ci := 0; ci < CInG; ci++ {
							v := in[inBase+g*CInG+ci]
							kRow := tapBase + ci*COut + g*COutG
							taps := k[kRow : kRow+COutG]
							for co, w := range taps {
								o[co] += v * w
							}
						}
					}
				}
			}
		}
	}, cpu.parallel)

	return output
}
