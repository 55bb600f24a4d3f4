// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nas/backend/cpu"
	"github.com/born-ml/nas/nn"
	"github.com/born-ml/nas/tensor"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name   string
		module nn.Module[*cpu.Backend]
		want   tensor.Shape
	}{
		{
			name:   "Conv2D",
			module: nn.NewConv2D(nn.Conv2DConfig{InChannels: 3, OutChannels: 8, KernelSize: 3}, rng, backend),
			want:   tensor.Shape{2, 8, 8, 8},
		},
		{
			name:   "BatchNorm2D",
			module: nn.NewBatchNorm2D(3, true, backend),
			want:   tensor.Shape{2, 8, 8, 3},
		},
		{
			name:   "MaxPool2D",
			module: nn.NewMaxPool2D[*cpu.Backend](tensor.PoolParams{Kernel: 2, Stride: 2, Padding: tensor.PaddingValid}),
			want:   tensor.Shape{2, 4, 4, 3},
		},
		{
			name: "Sequential",
			module: nn.NewSequential[*cpu.Backend](
				nn.NewReLU[*cpu.Backend](),
				nn.NewConv2D(nn.Conv2DConfig{InChannels: 3, OutChannels: 4, KernelSize: 1, Stride: 2}, rng, backend),
				nn.NewGlobalAvgPool2D[*cpu.Backend](),
			),
			want: tensor.Shape{2, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tensor.Randn(tensor.Shape{2, 8, 8, 3}, rng, backend)
			output := tt.module.Forward(input)
			assert.Equal(t, tt.want, output.Shape())

			sd := tt.module.StateDict()
			require.NoError(t, tt.module.LoadStateDict(sd))
		})
	}
}

func TestL2Penalty(t *testing.T) {
	backend := cpu.New()
	w := tensor.Full(tensor.Shape{2, 2}, 2, backend)
	p := nn.NewParameter("weight", w).WithWeightDecay(0.5)

	// 0.5 * (4 * 2²)
	assert.InDelta(t, 8.0, float64(nn.L2Penalty([]*nn.Parameter[*cpu.Backend]{p})), 1e-6)
}

func TestSetTraining(t *testing.T) {
	backend := cpu.New()
	bn := nn.NewBatchNorm2D(4, false, backend)
	nn.SetTraining(false, bn, nn.NewReLU[*cpu.Backend]())
	assert.False(t, bn.Training())
	assert.Empty(t, bn.Parameters())
}
