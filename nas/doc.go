// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nas provides the PC-DARTS differentiable architecture search
// network.
//
// # Overview
//
// A search network stacks cells whose edges are mixed operations: each edge
// runs all candidate primitives on a quarter of its input channels and sums
// them under softmaxed architecture weights (alphas), while per-edge weights
// (betas) scale each edge's contribution to its node. Genotype collapses the
// architecture weights into a discrete cell.
//
// # Basic Usage
//
//	import (
//	    "fmt"
//	    "math/rand"
//
//	    "github.com/born-ml/nas/backend/cpu"
//	    "github.com/born-ml/nas/nas"
//	    "github.com/born-ml/nas/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(1))
//
//	    net, err := nas.NewSearchNetwork(nas.DefaultNetworkConfig(), rng, backend)
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    x := tensor.Randn(tensor.Shape{2, 32, 32, 3}, rng, backend)
//	    logits, err := net.Predict(x) // [2, 10]
//
//	    g, err := net.Genotype()
//	    fmt.Println(g)
//	}
//
// # Checkpoints
//
// SaveCheckpoint and LoadCheckpoint store the full network state, including
// architecture parameters, under <dir>/<run>/best.
package nas
