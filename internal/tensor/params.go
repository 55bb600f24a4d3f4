package tensor

import "fmt"

// Padding selects how spatial borders are handled by windowed operations.
type Padding int

// Padding modes, with the usual TensorFlow meaning.
const (
	// PaddingSame pads so that out = ceil(in / stride). Extra padding goes
	// to the bottom/right edge.
	PaddingSame Padding = iota
	// PaddingValid uses no padding: out = (in - effective_kernel) / stride + 1.
	PaddingValid
)

// String returns the padding mode name.
func (p Padding) String() string {
	switch p {
	case PaddingSame:
		return "same"
	case PaddingValid:
		return "valid"
	default:
		return "unknown"
	}
}

// ConvParams configures a 2D convolution.
type ConvParams struct {
	Stride   int
	Dilation int
	Groups   int
	Padding  Padding
}

// Normalized returns p with zero fields replaced by their defaults (1).
func (p ConvParams) Normalized() ConvParams {
	if p.Stride == 0 {
		p.Stride = 1
	}
	if p.Dilation == 0 {
		p.Dilation = 1
	}
	if p.Groups == 0 {
		p.Groups = 1
	}
	return p
}

// PoolParams configures a 2D pooling window.
type PoolParams struct {
	Kernel  int
	Stride  int
	Padding Padding
}

// WindowOutput computes the output length of a sliding window along one axis
// and the padding inserted before the first element.
//
// kernel is the undilated kernel size; the effective extent is
// (kernel-1)*dilation + 1.
func WindowOutput(in, kernel, stride, dilation int, padding Padding) (out, padBefore int, err error) {
	if stride <= 0 || dilation <= 0 || kernel <= 0 {
		return 0, 0, fmt.Errorf("invalid window: kernel=%d stride=%d dilation=%d", kernel, stride, dilation)
	}
	extent := (kernel-1)*dilation + 1

	switch padding {
	case PaddingSame:
		out = (in + stride - 1) / stride
		total := max((out-1)*stride+extent-in, 0)
		return out, total / 2, nil
	case PaddingValid:
		if in < extent {
			return 0, 0, fmt.Errorf("input size %d smaller than window extent %d", in, extent)
		}
		return (in-extent)/stride + 1, 0, nil
	default:
		return 0, 0, fmt.Errorf("unknown padding mode %d", padding)
	}
}
