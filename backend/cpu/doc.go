// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Direct NHWC convolutions with stride, dilation, groups and SAME/VALID padding
//   - Max and average pooling, batch normalization, softmax
//   - NumPy-compatible broadcasting
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/nas/backend/cpu"
//	    "github.com/born-ml/nas/nas"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    net, err := nas.NewSearchNetwork(nas.DefaultNetworkConfig(), rand.New(rand.NewSource(1)), backend)
//	}
//
// # Performance
//
// Convolution, pooling and matmul kernels split their output rows across
// goroutines. Each worker writes a disjoint range, so results do not depend
// on the worker count.
package cpu
