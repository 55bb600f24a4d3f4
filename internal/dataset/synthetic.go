package dataset

import (
	"math/rand"
)

// Synthetic is a seeded random dataset: N(0,1) pixels and uniform labels.
// Example i is the same for a given seed regardless of access order.
type Synthetic struct {
	n          int
	size       int
	numClasses int
	seed       int64
}

// NewSynthetic creates a Synthetic dataset.
func NewSynthetic(n, size, numClasses int, seed int64) *Synthetic {
	return &Synthetic{n: n, size: size, numClasses: numClasses, seed: seed}
}

// Len returns the number of examples.
func (s *Synthetic) Len() int { return s.n }

// ImageSize returns the image side.
func (s *Synthetic) ImageSize() int { return s.size }

// Example fills dst with image i and returns its label.
func (s *Synthetic) Example(i int, dst []float32) int {
	rng := rand.New(rand.NewSource(s.seed*1_000_003 + int64(i)))
	for j := range dst {
		dst[j] = float32(rng.NormFloat64())
	}
	return rng.Intn(s.numClasses)
}
