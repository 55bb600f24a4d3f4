// Package nn provides neural network layers and building blocks.
package nn

import (
	"github.com/born-ml/nas/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//   - StateDict: Export parameters (and buffers) for serialization
//   - LoadStateDict: Import parameters from serialization
//
// Forward panics on shape contract violations, like the backend kernels it
// dispatches to.
type Module[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[B]) *tensor.Tensor[B]
	Parameters() []*Parameter[B]
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// TrainingModeSetter is implemented by modules whose behavior differs
// between training and inference (batch normalization).
type TrainingModeSetter interface {
	SetTraining(training bool)
}

// SetTraining switches every module that supports it.
func SetTraining(training bool, modules ...any) {
	for _, m := range modules {
		if s, ok := m.(TrainingModeSetter); ok {
			s.SetTraining(training)
		}
	}
}
