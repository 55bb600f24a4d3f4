package cpu

import (
	"fmt"

	"github.com/born-ml/nas/internal/parallel"
	"github.com/born-ml/nas/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
//
// Rows of the result are computed in parallel using the i-k-j loop order,
// which streams both b and the output row.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %dD and %dD", len(aShape), len(bShape)))
	}
	M, K, N := aShape[0], aShape[1], bShape[1]
	if bShape[0] != K {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch %v @ %v", aShape, bShape))
	}

	result := newResult("matmul", tensor.Shape{M, N})
	aData, bData, out := a.Data(), b.Data(), result.Data()

	parallel.For(M, func(i int) {
		row := out[i*N : (i+1)*N]
		for k := 0; k < K; k++ {
			v := aData[i*K+k]
			bRow := bData[k*N : (k+1)*N]
			for j, w := range bRow {
				row[j] += v * w
			}
		}
	}, cpu.parallel)

	return result
}
