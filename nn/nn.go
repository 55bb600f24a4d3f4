// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
)

// Layers

// Conv2DConfig configures a Conv2D layer.
type Conv2DConfig = nn.Conv2DConfig

// Conv2D represents a 2D convolutional layer over NHWC input.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer with He initialization.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(nn.Conv2DConfig{InChannels: 3, OutChannels: 48, KernelSize: 3}, rng, backend)
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, rng *rand.Rand, backend B) *Conv2D[B] {
	return nn.NewConv2D(cfg, rng, backend)
}

// BatchNorm2D normalizes each channel of an NHWC tensor.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer. Non-affine layers
// have no trainable parameters.
func NewBatchNorm2D[B tensor.Backend](channels int, affine bool, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(channels, affine, backend)
}

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, weightDecay float32, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, weightDecay, rng, backend)
}

// Pooling

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
//
// Example:
//
//	pool := nn.NewMaxPool2D[*cpu.Backend](tensor.PoolParams{Kernel: 2, Stride: 2, Padding: tensor.PaddingValid})
func NewMaxPool2D[B tensor.Backend](params tensor.PoolParams) *MaxPool2D[B] {
	return nn.NewMaxPool2D[B](params)
}

// AvgPool2D represents a 2D average pooling layer. Padded cells are not
// counted.
type AvgPool2D[B tensor.Backend] = nn.AvgPool2D[B]

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](params tensor.PoolParams) *AvgPool2D[B] {
	return nn.NewAvgPool2D[B](params)
}

// GlobalAvgPool2D reduces [N, H, W, C] to [N, C].
type GlobalAvgPool2D[B tensor.Backend] = nn.GlobalAvgPool2D[B]

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D[B tensor.Backend]() *GlobalAvgPool2D[B] {
	return nn.NewGlobalAvgPool2D[B]()
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Containers

// Sequential chains modules, feeding each output into the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a container from modules in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Initialization

// HeNormal samples N(0, 2/fanIn) weights.
func HeNormal[B tensor.Backend](fanIn int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[B] {
	return nn.HeNormal(fanIn, shape, rng, backend)
}

// Xavier samples uniform Glorot weights.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}
