package nas

import (
	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// ChannelShuffle interleaves the channels of an NHWC tensor across groups:
// the channel axis is viewed as [groups, C/groups], transposed, and
// flattened back.
//
// Shuffling with groups=g and then with groups=C/g restores the input.
func ChannelShuffle[B tensor.Backend](x *tensor.Tensor[B], groups int) (*tensor.Tensor[B], error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, errors.Wrapf(ErrShapeMismatch, "channel shuffle: expected 4D input [N,H,W,C], got %v", shape)
	}
	n, h, w, c := shape[0], shape[1], shape[2], shape[3]
	if groups <= 0 || c%groups != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "channel shuffle: %d channels not divisible by %d groups", c, groups)
	}

	return x.
		Reshape(n, h, w, groups, c/groups).
		Transpose(0, 1, 2, 4, 3).
		Reshape(n, h, w, c), nil
}
