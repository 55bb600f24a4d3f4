package tensor

import (
	"fmt"
	"slices"
)

// Shape represents the dimensions of a tensor. Image tensors are
// [batch, height, width, channels].
type Shape []int

// NumElements returns the product of the dimensions; a scalar holds one.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate reports the first non-positive dimension.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, d)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// ComputeStrides calculates row-major strides for the shape.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// Split returns the element counts before, at and after dim.
//
// For a row-major tensor element (o, i, k) lives at
// o*size*inner + i*inner + k.
func (s Shape) Split(dim int) (outer, size, inner int) {
	return s[:dim].NumElements(), s[dim], s[dim+1:].NumElements()
}

// NormalizeDim resolves a possibly negative axis against rank.
func NormalizeDim(dim, rank int) (int, error) {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		return 0, fmt.Errorf("dimension %d out of range for rank %d", dim, rank)
	}
	return dim, nil
}

// BroadcastShapes applies NumPy broadcasting to a and b.
//
// Dimensions are aligned from the right; a missing dimension counts as 1.
// The flag reports whether either operand has to be expanded.
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	expand := len(a) != len(b)

	dimAt := func(s Shape, i int) int {
		if j := len(s) - rank + i; j >= 0 {
			return s[j]
		}
		return 1
	}

	for i := range out {
		da, db := dimAt(a, i), dimAt(b, i)
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
			expand = true
		case db == 1:
			out[i] = da
			expand = true
		default:
			return nil, false, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, i, da, db)
		}
	}
	return out, expand, nil
}
