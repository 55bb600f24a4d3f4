// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the convolutional building blocks the search network
// is assembled from.
//
// # Overview
//
// This package contains:
//   - Layers: Conv2D (stride, dilation, groups), BatchNorm2D, Linear
//   - Pooling: MaxPool2D, AvgPool2D, GlobalAvgPool2D
//   - Activations: ReLU
//   - Utilities: Sequential, Module interface, Parameter, L2Penalty
//   - Initialization: HeNormal, Xavier
//
// All image tensors are NHWC and all kernels HWIO.
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/nas/backend/cpu"
//	    "github.com/born-ml/nas/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(1))
//
//	    block := nn.NewSequential[*cpu.Backend](
//	        nn.NewReLU[*cpu.Backend](),
//	        nn.NewConv2D(nn.Conv2DConfig{InChannels: 16, OutChannels: 16, KernelSize: 3}, rng, backend),
//	        nn.NewBatchNorm2D(16, true, backend),
//	    )
//
//	    output := block.Forward(input)
//	}
//
// # Weight decay
//
// Convolution and linear kernels carry an L2 coefficient on their
// Parameter. L2Penalty sums wd·Σw² over a parameter list.
package nn
