package nas

import (
	"math/rand"
	"testing"

	"github.com/born-ml/nas/internal/backend/cpu"
	"github.com/born-ml/nas/internal/tensor"
)

type testBackend = *cpu.CPUBackend

func randInput(shape tensor.Shape, seed int64, backend testBackend) *tensor.Tensor[testBackend] {
	return tensor.Randn(shape, rand.New(rand.NewSource(seed)), backend)
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// smallNetworkConfig keeps the network cheap enough for unit tests.
func smallNetworkConfig(t *testing.T) NetworkConfig {
	t.Helper()
	cfg := DefaultNetworkConfig()
	cfg.InputSize = 8
	cfg.InitChannels = 4
	cfg.Layers = 3
	cfg.NumClasses = 5
	cfg.Steps = 2
	cfg.Multiplier = 2
	return cfg
}

func randRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
