package layout

import (
	"fmt"

	"github.com/pkg/errors"
)

// Layout is the complete geometry of an array or view: shape, strides and the
// base offset of the element at the all-zero index.
//
// Layout is an immutable value. Every transformation returns a new Layout.
type Layout struct {
	shape   Shape
	strides Strides
	offset  int
}

// New creates a Layout from explicit geometry.
// The strides must have one entry per axis.
func New(shape Shape, strides Strides, offset int) (Layout, error) {
	if len(shape) != len(strides) {
		return Layout{}, errors.Wrapf(ErrDimensionMismatch, "shape %v has rank %d but strides %v have %d entries",
			shape, len(shape), []int(strides), len(strides))
	}
	if err := shape.Validate(); err != nil {
		return Layout{}, err
	}
	return Layout{shape: shape.Clone(), strides: strides.Clone(), offset: offset}, nil
}

// Contiguous creates the canonical layout of shape under order, with base offset 0.
func Contiguous(shape Shape, order Order) (Layout, error) {
	if err := shape.Validate(); err != nil {
		return Layout{}, err
	}
	strides, err := StridesFor(shape, order)
	if err != nil {
		return Layout{}, err
	}
	return Layout{shape: shape.Clone(), strides: strides}, nil
}

// Shape returns a copy of the extents.
func (l Layout) Shape() Shape {
	return l.shape.Clone()
}

// Strides returns a copy of the strides.
func (l Layout) Strides() Strides {
	return l.strides.Clone()
}

// Offset returns the base offset.
func (l Layout) Offset() int {
	return l.offset
}

// Rank returns the number of axes.
func (l Layout) Rank() int {
	return len(l.shape)
}

// NumElements returns the number of addressable elements.
func (l Layout) NumElements() int {
	return l.shape.NumElements()
}

// Equal compares shape, strides and offset.
func (l Layout) Equal(other Layout) bool {
	return l.offset == other.offset && l.shape.Equal(other.shape) && l.strides.Equal(other.strides)
}

// String renders the layout for debugging.
func (l Layout) String() string {
	return fmt.Sprintf("Layout{shape=%v strides=%v offset=%d}", []int(l.shape), []int(l.strides), l.offset)
}

// Span returns the lowest and highest storage offsets the layout can reach.
// ok is false when the layout has no elements.
func (l Layout) Span() (lo, hi int, ok bool) {
	return span(l.shape, l.strides, l.offset)
}

// Fits reports whether every reachable offset lies in [0, capacity).
func (l Layout) Fits(capacity int) bool {
	lo, hi, ok := l.Span()
	if !ok {
		return l.offset >= 0 && l.offset <= capacity
	}
	return lo >= 0 && hi < capacity
}

// Overlaps reports whether the offset ranges of two layouts intersect.
// The check is conservative: interleaved but disjoint layouts may report true.
func (l Layout) Overlaps(other Layout) bool {
	lo1, hi1, ok1 := l.Span()
	lo2, hi2, ok2 := other.Span()
	if !ok1 || !ok2 {
		return false
	}
	return lo1 <= hi2 && lo2 <= hi1
}

// HasInternalOverlap reports whether two distinct indices can reach the same
// offset, as happens on broadcast axes. The check is exact for zero strides and
// conservative otherwise.
func (l Layout) HasInternalOverlap() bool {
	axes := inferAxes(l.strides)
	need := 1
	for k := len(axes) - 1; k >= 0; k-- {
		axis := axes[k]
		dim := l.shape[axis]
		if dim == 0 {
			return false
		}
		if dim == 1 {
			continue
		}
		if abs(l.strides[axis]) < need {
			return true
		}
		need = abs(l.strides[axis]) * dim
	}
	return false
}

// OffsetOf computes the storage offset of a multi-index.
// Negative components count from the end of their axis; after that
// normalization every component must lie in [0, extent).
func OffsetOf(shape Shape, strides Strides, base int, index []int) (int, error) {
	if len(shape) != len(strides) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "shape %v has rank %d but strides have %d entries",
			shape, len(shape), len(strides))
	}
	if len(index) != len(shape) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "expected %d indices, got %d", len(shape), len(index))
	}
	off := base
	for axis, i := range index {
		n, err := normalizeIndex(i, shape[axis], axis)
		if err != nil {
			return 0, err
		}
		off += n * strides[axis]
	}
	return off, nil
}

// OffsetOf computes the storage offset of a multi-index within the layout.
func (l Layout) OffsetOf(index ...int) (int, error) {
	return OffsetOf(l.shape, l.strides, l.offset, index)
}

func normalizeIndex(i, dim, axis int) (int, error) {
	n := i
	if n < 0 {
		n += dim
	}
	if n < 0 || n >= dim {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "index %d for axis %d (extent %d)", i, axis, dim)
	}
	return n, nil
}

// IsContiguousIn reports whether the layout is contiguous under order.
func (l Layout) IsContiguousIn(order Order) bool {
	return IsContiguous(l.shape, l.strides, order)
}

// IsContiguous reports whether the layout is contiguous under row-major,
// column-major, or the stride order implied by its strides.
func (l Layout) IsContiguous() bool {
	_, ok := l.contiguousOrder()
	return ok
}

// Order returns the layout order: RowMajor or ColumnMajor when the strides are
// canonical for them, otherwise the stride order inferred from decreasing stride
// magnitude.
func (l Layout) Order() Order {
	o, _ := l.contiguousOrder()
	return o
}

func (l Layout) contiguousOrder() (Order, bool) {
	if l.IsContiguousIn(RowMajor) {
		return RowMajor, true
	}
	if l.IsContiguousIn(ColumnMajor) {
		return ColumnMajor, true
	}
	inferred, err := StrideOrder(inferAxes(l.strides))
	if err != nil {
		return RowMajor, false
	}
	return inferred, l.IsContiguousIn(inferred)
}
