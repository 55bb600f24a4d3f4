// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/born-ml/nas/internal/parallel"
	"github.com/born-ml/nas/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// Convolution and pooling kernels are spread over goroutines with
// internal/parallel; every worker owns a disjoint slice of the output, so
// results are identical to a sequential run.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend using all available cores.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with an explicit parallelism config.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// newResult allocates an output tensor, panicking with the op name on failure.
func newResult(op string, shape tensor.Shape) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

func mustDim(op string, dim, rank int) int {
	d, err := tensor.NormalizeDim(dim, rank)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return d
}
