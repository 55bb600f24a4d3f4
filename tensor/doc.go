// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides float32 tensors for the PC-DARTS search network.
//
// # Overview
//
// Tensors are row-major float32 buffers. Image tensors use NHWC layout
// ([batch, height, width, channels]) and convolution kernels HWIO
// ([kernel_h, kernel_w, in/groups, out]).
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/nas/backend/cpu"
//	    "github.com/born-ml/nas/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(1))
//
//	    x := tensor.Randn(tensor.Shape{2, 32, 32, 3}, rng, backend)
//	    y := x.Softmax(3)
//	}
//
// # Determinism
//
// Every random constructor takes a *rand.Rand, so a fixed seed reproduces
// the same tensors.
package tensor
