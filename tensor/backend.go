// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/nas/internal/tensor"

// Backend defines the interface that all compute backends must implement.
//
// Implementations:
//   - backend/cpu: Pure Go, parallel convolution and pooling kernels
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, backend)
//	z := x.Add(tensor.Ones(tensor.Shape{2, 3}, backend))
type Backend = tensor.Backend

// Padding selects SAME or VALID window placement.
type Padding = tensor.Padding

// Padding modes.
const (
	PaddingSame  Padding = tensor.PaddingSame
	PaddingValid Padding = tensor.PaddingValid
)

// ConvParams configures a 2D convolution.
type ConvParams = tensor.ConvParams

// PoolParams configures a 2D pooling window.
type PoolParams = tensor.PoolParams
