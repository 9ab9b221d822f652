package layout

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
)

// Reshape returns the layout of the same elements under a new shape.
//
// The layout must be contiguous under order; otherwise the reshape would need
// a copy and ErrNotReshapeable is returned. One extent may be -1 and is
// inferred from the element count.
func (l Layout) Reshape(shape Shape, order Order) (Layout, error) {
	target, err := inferExtent(shape, l.NumElements())
	if err != nil {
		return Layout{}, err
	}
	if !l.IsContiguousIn(order) {
		return Layout{}, errors.Wrapf(ErrNotReshapeable, "reshape %v to %v: strides %v are not %s",
			l.shape, target, []int(l.strides), order)
	}
	strides, err := StridesFor(target, order)
	if err != nil {
		return Layout{}, err
	}
	return Layout{shape: target, strides: strides, offset: l.offset}, nil
}

// Flatten reshapes the layout to one axis under order.
func (l Layout) Flatten(order Order) (Layout, error) {
	return l.Reshape(Shape{l.NumElements()}, order)
}

func inferExtent(shape Shape, count int) (Shape, error) {
	target := shape.Clone()
	infer := -1
	known := 1
	for i, dim := range target {
		switch {
		case dim == -1 && infer >= 0:
			return nil, errors.Wrapf(ErrShapeMismatch, "reshape to %v: more than one -1 extent", shape)
		case dim == -1:
			infer = i
		case dim < 0:
			return nil, errors.Wrapf(ErrInvalidShape, "reshape to %v: extent %d at axis %d", shape, dim, i)
		default:
			known *= dim
		}
	}
	if infer >= 0 {
		if known == 0 || count%known != 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "reshape %d elements to %v", count, shape)
		}
		target[infer] = count / known
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if target.NumElements() != count {
		return nil, errors.Wrapf(ErrShapeMismatch, "reshape %d elements to %v (%d elements)",
			count, target, target.NumElements())
	}
	return target, nil
}

// Permute reorders the axes: axis i of the result is axis perm[i] of l.
func (l Layout) Permute(perm Permutation) (Layout, error) {
	if len(perm) != l.Rank() || !perm.IsValid() {
		return Layout{}, errors.Wrapf(ErrDimensionMismatch, "permute rank %d layout by %v", l.Rank(), []int(perm))
	}
	shape, _ := Apply(perm, l.shape)
	strides, _ := Apply(perm, l.strides)
	return Layout{shape: shape, strides: strides, offset: l.offset}, nil
}

// Transpose reverses the axes.
func (l Layout) Transpose() Layout {
	t, _ := l.Permute(Reverse(l.Rank()))
	return t
}

// SwapAxes exchanges two axes. Negative axes count from the end.
func (l Layout) SwapAxes(i, j int) (Layout, error) {
	a, err := l.normalizeAxis(i)
	if err != nil {
		return Layout{}, err
	}
	b, err := l.normalizeAxis(j)
	if err != nil {
		return Layout{}, err
	}
	return l.Permute(Transposition(l.Rank(), a, b))
}

// Squeeze removes an axis of extent 1.
func (l Layout) Squeeze(axis int) (Layout, error) {
	a, err := l.normalizeAxis(axis)
	if err != nil {
		return Layout{}, err
	}
	if l.shape[a] != 1 {
		return Layout{}, errors.Wrapf(ErrShapeMismatch, "squeeze axis %d of %v: extent is not 1", axis, l.shape)
	}
	shape := append(l.shape[:a:a], l.shape[a+1:]...)
	strides := append(l.strides[:a:a], l.strides[a+1:]...)
	return Layout{shape: shape, strides: strides, offset: l.offset}, nil
}

// Unsqueeze inserts an axis of extent 1 at position axis in the result.
// Negative positions count from the end of the result.
func (l Layout) Unsqueeze(axis int) (Layout, error) {
	rank := l.Rank() + 1
	a := axis
	if a < 0 {
		a += rank
	}
	if a < 0 || a >= rank {
		return Layout{}, errors.Wrapf(ErrIndexOutOfRange, "unsqueeze axis %d for result rank %d", axis, rank)
	}
	shape := make(Shape, 0, rank)
	strides := make(Strides, 0, rank)
	shape = append(append(append(shape, l.shape[:a]...), 1), l.shape[a:]...)
	strides = append(append(append(strides, l.strides[:a]...), 0), l.strides[a:]...)
	return Layout{shape: shape, strides: strides, offset: l.offset}, nil
}

// Diagonal returns the 1-D layout of the main diagonal of a rank-2 layout.
// Its stride is the sum of both strides.
func (l Layout) Diagonal() (Layout, error) {
	if l.Rank() != 2 {
		return Layout{}, errors.Wrapf(ErrDimensionMismatch, "diagonal of rank %d layout", l.Rank())
	}
	n := min(l.shape[0], l.shape[1])
	return Layout{shape: Shape{n}, strides: Strides{l.strides[0] + l.strides[1]}, offset: l.offset}, nil
}

// GroupAxes merges each group of axes into a single axis. The groups must
// partition the axes; the result has one axis per group, in group order.
// A merged axis has the product of the extents and walks the group's elements
// in memory order, so each group must be contiguous in itself: sorted by
// stride magnitude, every stride equals the next stride times the next extent.
// Otherwise the merge needs a copy and ErrNotReshapeable is returned.
func (l Layout) GroupAxes(groups ...[]int) (Layout, error) {
	seen := make([]bool, l.Rank())
	covered := 0
	for _, g := range groups {
		if len(g) == 0 {
			return Layout{}, errors.Wrapf(ErrDimensionMismatch, "group axes %v: empty group", groups)
		}
		for _, ax := range g {
			if ax < 0 || ax >= l.Rank() || seen[ax] {
				return Layout{}, errors.Wrapf(ErrDimensionMismatch, "group axes %v: not a partition of %d axes", groups, l.Rank())
			}
			seen[ax] = true
			covered++
		}
	}
	if covered != l.Rank() {
		return Layout{}, errors.Wrapf(ErrDimensionMismatch, "group axes %v: not a partition of %d axes", groups, l.Rank())
	}

	empty := l.NumElements() == 0
	shape := make(Shape, len(groups))
	strides := make(Strides, len(groups))
	for i, g := range groups {
		extent := 1
		var axes []int
		for _, ax := range g {
			extent *= l.shape[ax]
			if l.shape[ax] != 1 {
				axes = append(axes, ax)
			}
		}
		shape[i] = extent
		switch {
		case len(axes) == 0:
			strides[i] = l.strides[g[len(g)-1]]
			continue
		case empty:
			strides[i] = l.strides[axes[len(axes)-1]]
			continue
		}

		// Slowest axis first.
		slices.SortStableFunc(axes, func(a, b int) int {
			return cmp.Compare(abs(l.strides[b]), abs(l.strides[a]))
		})
		for k := 0; k+1 < len(axes); k++ {
			outer, inner := axes[k], axes[k+1]
			if l.strides[outer] != l.strides[inner]*l.shape[inner] {
				return Layout{}, errors.Wrapf(ErrNotReshapeable, "group axes %v of %v: strides %v are not contiguous",
					g, l.shape, []int(l.strides))
			}
		}
		strides[i] = l.strides[axes[len(axes)-1]]
	}
	return Layout{shape: shape, strides: strides, offset: l.offset}, nil
}

func (l Layout) normalizeAxis(axis int) (int, error) {
	a := axis
	if a < 0 {
		a += l.Rank()
	}
	if a < 0 || a >= l.Rank() {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "axis %d for rank %d", axis, l.Rank())
	}
	return a, nil
}
