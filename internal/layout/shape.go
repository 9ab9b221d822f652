// Package layout implements the pure geometry of strided multi-dimensional
// arrays: shapes, strides, layout orders, slicing, broadcasting and reshaping.
//
// Nothing in this package touches element memory. Every transformation returns
// a new value and leaves its receiver untouched.
package layout

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Shape represents the extents of an array, one per axis.
type Shape []int

// NewShape validates extents and returns them as a Shape.
// Extents must be non-negative and their product must fit in an int.
func NewShape(extents ...int) (Shape, error) {
	s := Shape(extents).Clone()
	if _, err := s.checkedNumElements(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rank returns the number of axes.
func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the total number of elements.
// A rank-0 shape is a scalar and has one element; any zero extent yields zero.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// checkedNumElements is NumElements with validation of every extent and of overflow.
func (s Shape) checkedNumElements() (int, error) {
	count := 1
	for i, dim := range s {
		if dim < 0 {
			return 0, errors.Wrapf(ErrInvalidShape, "extent at axis %d is %d (must be >= 0)", i, dim)
		}
		if dim == 0 {
			count = 0
			continue
		}
		if count != 0 && count > math.MaxInt/dim {
			return 0, errors.Wrapf(ErrInvalidShape, "shape %v exceeds the maximum element count", s)
		}
		count *= dim
	}
	return count, nil
}

// Validate checks that every extent is non-negative and the element count fits in an int.
func (s Shape) Validate() error {
	_, err := s.checkedNumElements()
	return err
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// String renders the shape as "[2 3 4]".
func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}

// Indices iterates over every multi-index of the shape in row-major
// (lexicographic) order. The yielded slice is reused between iterations:
// copy it if it must outlive the loop body. A scalar shape yields one empty index.
func (s Shape) Indices() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if s.NumElements() == 0 {
			return
		}
		idx := make([]int, len(s))
		for {
			if !yield(idx) {
				return
			}
			axis := len(s) - 1
			for ; axis >= 0; axis-- {
				idx[axis]++
				if idx[axis] < s[axis] {
					break
				}
				idx[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}

// Strides holds the element offset to advance one index along each axis.
// Entries may be negative (reversed axis) or zero (broadcast axis).
type Strides []int

// Clone returns a copy of the strides.
func (st Strides) Clone() Strides {
	clone := make(Strides, len(st))
	copy(clone, st)
	return clone
}

// Equal checks if two stride sequences are equal.
func (st Strides) Equal(other Strides) bool {
	if len(st) != len(other) {
		return false
	}
	for i := range st {
		if st[i] != other[i] {
			return false
		}
	}
	return true
}

// Footprint returns the number of elements spanned by a shape laid out with the
// given strides: the distance between the lowest and highest reachable offsets plus one.
// Empty shapes span nothing.
func Footprint(shape Shape, strides Strides) (int, error) {
	if len(shape) != len(strides) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "shape %v has rank %d but strides %v have %d entries",
			shape, len(shape), []int(strides), len(strides))
	}
	lo, hi, ok := span(shape, strides, 0)
	if !ok {
		return 0, nil
	}
	return hi - lo + 1, nil
}

// ByteFootprint is Footprint scaled by the element size.
func ByteFootprint(shape Shape, strides Strides, elemSize int) (int, error) {
	n, err := Footprint(shape, strides)
	if err != nil {
		return 0, err
	}
	return n * elemSize, nil
}

// span returns the lowest and highest offsets reachable from base.
// ok is false when the shape has no elements.
func span(shape Shape, strides Strides, base int) (lo, hi int, ok bool) {
	lo, hi = base, base
	for i, dim := range shape {
		if dim == 0 {
			return 0, 0, false
		}
		reach := (dim - 1) * strides[i]
		if reach < 0 {
			lo += reach
		} else {
			hi += reach
		}
	}
	return lo, hi, true
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
