// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nas_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/nas/backend/cpu"
	"github.com/born-ml/nas/nas"
	"github.com/born-ml/nas/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPublicAPI drives a small search network through the facade only.
func TestPublicAPI(t *testing.T) {
	backend := cpu.NewWithConfig(cpu.ParallelConfig{Enabled: false})
	rng := rand.New(rand.NewSource(3))

	cfg := nas.DefaultNetworkConfig()
	cfg.InputSize = 8
	cfg.InitChannels = 4
	cfg.Layers = 3
	cfg.Steps = 2
	cfg.Multiplier = 2

	net, err := nas.NewSearchNetwork(cfg, rng, backend)
	require.NoError(t, err)

	logits, err := net.Predict(tensor.Randn(tensor.Shape{2, 8, 8, 3}, rng, backend))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 10}, logits.Shape())

	g, err := net.Genotype()
	require.NoError(t, err)
	assert.NoError(t, g.Validate(2))

	dir := t.TempDir()
	_, err = nas.LoadCheckpoint(net, dir, "run")
	assert.ErrorIs(t, err, nas.ErrMissingCheckpoint)

	path, err := nas.SaveCheckpoint(net, dir, "run")
	require.NoError(t, err)
	assert.Equal(t, nas.CheckpointPath(dir, "run"), path)
}

func TestPublicHelpers(t *testing.T) {
	assert.Equal(t, 14, nas.NumEdges(4))
	assert.Equal(t, [2]int{2, 5}, nas.ReductionLayers(8))
	assert.Equal(t, 8, nas.NumPrimitives)

	p, err := nas.ParsePrimitive("sep_conv_5x5")
	require.NoError(t, err)
	assert.Equal(t, nas.SepConv5x5, p)

	require.NoError(t, nas.PCDARTSCifar.Validate(4))
}
