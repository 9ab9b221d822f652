package layout

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// OrderKind classifies a layout order.
type OrderKind int

// Layout order kinds.
const (
	KindRowMajor OrderKind = iota
	KindColumnMajor
	KindPermuted
)

// String returns a human-readable name for the order kind.
func (k OrderKind) String() string {
	switch k {
	case KindRowMajor:
		return "row-major"
	case KindColumnMajor:
		return "column-major"
	case KindPermuted:
		return "permuted"
	default:
		return "unknown"
	}
}

// Order determines the canonical strides of a freshly allocated array.
//
// An order is described by its axis ordering: a permutation listing axes from
// the slowest varying to the fastest varying. Row-major is the identity,
// column-major is the reversed identity.
type Order struct {
	kind OrderKind
	axes Permutation
}

// Predefined orders.
var (
	RowMajor    = Order{kind: KindRowMajor}
	ColumnMajor = Order{kind: KindColumnMajor}
)

// StrideOrder returns an arbitrary-permutation order. axes lists the axes from
// slowest to fastest varying. Identity and reversed permutations collapse to
// RowMajor and ColumnMajor.
func StrideOrder(axes Permutation) (Order, error) {
	if !axes.IsValid() {
		return Order{}, errors.Wrapf(ErrDimensionMismatch, "stride order %v is not a permutation", []int(axes))
	}
	switch {
	case axes.IsIdentity():
		return RowMajor, nil
	case axes.Equal(Reverse(len(axes))):
		return ColumnMajor, nil
	}
	return Order{kind: KindPermuted, axes: axes.Clone()}, nil
}

// Kind returns the order's classification.
func (o Order) Kind() OrderKind {
	return o.kind
}

// Axes returns the axis ordering for the given rank, slowest axis first.
func (o Order) Axes(rank int) (Permutation, error) {
	switch o.kind {
	case KindRowMajor:
		return Identity(rank), nil
	case KindColumnMajor:
		return Reverse(rank), nil
	default:
		if len(o.axes) != rank {
			return nil, errors.Wrapf(ErrDimensionMismatch, "stride order %v used with rank %d", []int(o.axes), rank)
		}
		return o.axes.Clone(), nil
	}
}

// Equal checks if two orders are identical.
func (o Order) Equal(other Order) bool {
	return o.kind == other.kind && o.axes.Equal(other.axes)
}

// String returns a human-readable description of the order.
func (o Order) String() string {
	if o.kind == KindPermuted {
		return fmt.Sprintf("permuted(%s)", joinInts(o.axes))
	}
	return o.kind.String()
}

// ParseOrder parses "row-major"/"C", "column-major"/"F", or a comma-separated
// axis ordering such as "2,0,1".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "row-major", "rowmajor", "C", "c":
		return RowMajor, nil
	case "column-major", "colmajor", "F", "f":
		return ColumnMajor, nil
	}
	var axes Permutation
	cur, digits := 0, 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if digits == 0 {
				return Order{}, errors.Errorf("layout: cannot parse order %q", s)
			}
			axes = append(axes, cur)
			cur, digits = 0, 0
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return Order{}, errors.Errorf("layout: cannot parse order %q", s)
		}
		cur = cur*10 + int(s[i]-'0')
		digits++
	}
	return StrideOrder(axes)
}

// StridesFor computes the canonical strides of shape under order: the fastest
// axis has stride 1 and every slower axis has the product of the extents of all
// faster axes.
func StridesFor(shape Shape, order Order) (Strides, error) {
	axes, err := order.Axes(len(shape))
	if err != nil {
		return nil, err
	}
	strides := make(Strides, len(shape))
	acc := 1
	for k := len(axes) - 1; k >= 0; k-- {
		axis := axes[k]
		strides[axis] = acc
		acc *= shape[axis]
	}
	return strides, nil
}

// IsContiguous reports whether strides exactly equal StridesFor(shape, order).
func IsContiguous(shape Shape, strides Strides, order Order) bool {
	want, err := StridesFor(shape, order)
	if err != nil {
		return false
	}
	return want.Equal(strides)
}

// inferAxes sorts axes by decreasing stride magnitude, keeping axis order on ties.
func inferAxes(strides Strides) Permutation {
	axes := Identity(len(strides))
	slices.SortStableFunc(axes, func(a, b int) int {
		return abs(strides[b]) - abs(strides[a])
	})
	return axes
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
