package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Image tensors use the NHWC layout ([batch, height, width, channels]) and
// convolution kernels the HWIO layout ([kernel_h, kernel_w, in/groups, out]).
//
// Kernels panic on contract violations (shape mismatch, invalid axis), in
// the form "op: message". Callers that need recoverable errors validate
// shapes before dispatching.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting
	Add(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// Scalar operations
	AddScalar(x *RawTensor, scalar float32) *RawTensor
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// Matrix operations: [M, K] @ [K, N] -> [M, N]
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutional operations (NHWC)
	Conv2D(input, kernel *RawTensor, params ConvParams) *RawTensor
	MaxPool2D(input *RawTensor, params PoolParams) *RawTensor
	AvgPool2D(input *RawTensor, params PoolParams) *RawTensor

	// Normalization over every axis but the last (channels)
	ChannelMoments(x *RawTensor) (mean, variance *RawTensor)
	BatchNorm(x, mean, variance, gamma, beta *RawTensor, eps float32) *RawTensor

	// Activation functions
	ReLU(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reduction operations
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape and manipulation operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Narrow(x *RawTensor, dim, start, length int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
