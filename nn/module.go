// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/nas/internal/nn"
	"github.com/born-ml/nas/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// TrainingModeSetter is implemented by modules with batch statistics.
type TrainingModeSetter = nn.TrainingModeSetter

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// SetTraining switches every module that supports it between batch and
// running statistics.
func SetTraining(training bool, modules ...any) {
	nn.SetTraining(training, modules...)
}

// L2Penalty returns Σ wd·Σw² over params.
func L2Penalty[B tensor.Backend](params []*Parameter[B]) float32 {
	return nn.L2Penalty(params)
}
