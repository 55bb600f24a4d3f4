// Package dataset feeds image batches to the search network.
package dataset

import (
	"github.com/born-ml/nas/internal/tensor"
	"github.com/pkg/errors"
)

// Source is an indexable image classification dataset.
type Source interface {
	// Len returns the number of examples.
	Len() int
	// ImageSize returns the square side of every image.
	ImageSize() int
	// Example writes image i as normalized HWC float32 into dst (length
	// ImageSize²·3) and returns its label.
	Example(i int, dst []float32) int
}

// Iterator yields batches of NHWC images and their labels.
type Iterator[B tensor.Backend] interface {
	Next() (images *tensor.Tensor[B], labels []int, ok bool)
	Reset()
}

// Loader batches a Source in index order.
type Loader[B tensor.Backend] struct {
	src           Source
	batchSize     int
	dropRemainder bool
	backend       B
	pos           int
}

var _ Iterator[tensor.Backend] = (*Loader[tensor.Backend])(nil)

// NewLoader creates a Loader. With dropRemainder a final short batch is
// skipped.
func NewLoader[B tensor.Backend](src Source, batchSize int, dropRemainder bool, backend B) (*Loader[B], error) {
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &Loader[B]{
		src:           src,
		batchSize:     batchSize,
		dropRemainder: dropRemainder,
		backend:       backend,
	}, nil
}

// Next returns the next batch, or ok=false once the source is exhausted.
func (l *Loader[B]) Next() (*tensor.Tensor[B], []int, bool) {
	remaining := l.src.Len() - l.pos
	if remaining <= 0 || (l.dropRemainder && remaining < l.batchSize) {
		return nil, nil, false
	}
	n := min(l.batchSize, remaining)
	size := l.src.ImageSize()
	pixels := size * size * 3

	images := tensor.Zeros(tensor.Shape{n, size, size, 3}, l.backend)
	data := images.Data()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = l.src.Example(l.pos+i, data[i*pixels:(i+1)*pixels])
	}
	l.pos += n
	return images, labels, true
}

// Reset rewinds to the first example.
func (l *Loader[B]) Reset() { l.pos = 0 }

// NumBatches returns the number of batches per pass.
func (l *Loader[B]) NumBatches() int {
	if l.dropRemainder {
		return l.src.Len() / l.batchSize
	}
	return (l.src.Len() + l.batchSize - 1) / l.batchSize
}
