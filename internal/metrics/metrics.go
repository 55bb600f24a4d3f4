// Package metrics provides evaluation statistics for classification runs.
package metrics

import (
	"fmt"

	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// AverageMeter tracks a running, count-weighted average.
type AverageMeter struct {
	sum   float64
	count int
}

// Update adds val observed over n samples.
func (m *AverageMeter) Update(val float64, n int) {
	m.sum += val * float64(n)
	m.count += n
}

// Avg returns the weighted average, or 0 before any update.
func (m *AverageMeter) Avg() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Count returns the number of samples seen.
func (m *AverageMeter) Count() int { return m.count }

// Reset clears the meter.
func (m *AverageMeter) Reset() { *m = AverageMeter{} }

// String formats the current average.
func (m *AverageMeter) String() string { return fmt.Sprintf("%f", m.Avg()) }

// Accuracy returns, for each k in topk, the percentage of rows of logits
// [N, C] whose label is among the k highest scores. Among equal scores the
// higher class index ranks first. k larger than C counts every row.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[B], labels []int, topk ...int) ([]float64, error) {
	s := logits.Shape()
	if len(s) != 2 || s[0] != len(labels) {
		return nil, errors.Errorf("accuracy: logits %v do not match %d labels", s, len(labels))
	}
	n, c := s[0], s[1]
	data := logits.Data()

	ranks := make([]int, n)
	for i, label := range labels {
		if label < 0 || label >= c {
			return nil, errors.Errorf("accuracy: label %d out of range [0, %d)", label, c)
		}
		row := data[i*c : (i+1)*c]
		target := row[label]
		for j, v := range row {
			if v > target || (v == target && j > label) {
				ranks[i]++
			}
		}
	}

	res := make([]float64, len(topk))
	for r, k := range topk {
		if k <= 0 {
			return nil, errors.Errorf("accuracy: k must be positive, got %d", k)
		}
		correct := 0
		for _, rank := range ranks {
			if rank < k {
				correct++
			}
		}
		if n > 0 {
			res[r] = 100 * float64(correct) / float64(n)
		}
	}
	return res, nil
}

// ParamsMB returns a parameter count in millions.
func ParamsMB(count int) float64 {
	return float64(count) / 1e6
}
