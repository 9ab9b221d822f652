package layout

import (
	"github.com/pkg/errors"
)

// BroadcastShapes computes the common shape of several shapes.
//
// Rules:
//  1. Shapes are padded on the left with extent-1 axes to the largest rank.
//  2. At each axis the output extent is the largest input extent.
//  3. Every input extent must equal the output extent or be 1.
//
// An axis whose inputs are only 0 and 1 broadcasts to 0.
//
// Examples:
//
//	(3, 1) + (1, 4)    → (3, 4)
//	(5,)   + (2, 1, 5) → (2, 1, 5)
//	(3, 4) + (3, 5)    → ErrShapeMismatch
func BroadcastShapes(shapes ...Shape) (Shape, error) {
	rank := 0
	for _, s := range shapes {
		rank = max(rank, len(s))
	}

	out := make(Shape, rank)
	for i := range out {
		out[i] = 1
	}
	for i := 1; i <= rank; i++ {
		axis := rank - i
		for _, s := range shapes {
			if len(s) < i {
				continue
			}
			dim := s[len(s)-i]
			switch {
			case dim == out[axis] || dim == 1:
			case out[axis] == 1:
				out[axis] = dim
			default:
				return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v (axis %d: %d vs %d)",
					shapes, axis, dim, out[axis])
			}
		}
	}
	return out, nil
}

// BroadcastStrides computes the strides that present a (shape, strides) pair
// as the larger shape out. Padded axes and axes expanded from extent 1 get stride 0.
func BroadcastStrides(shape Shape, strides Strides, out Shape) (Strides, error) {
	if len(shape) != len(strides) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "shape %v has rank %d but strides have %d entries",
			shape, len(shape), len(strides))
	}
	if len(shape) > len(out) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast rank %d shape %v to rank %d shape %v",
			len(shape), shape, len(out), out)
	}

	pad := len(out) - len(shape)
	result := make(Strides, len(out))
	for axis := pad; axis < len(out); axis++ {
		in := axis - pad
		switch {
		case shape[in] == out[axis]:
			result[axis] = strides[in]
			if shape[in] == 1 {
				result[axis] = 0
			}
		case shape[in] == 1:
			result[axis] = 0
		default:
			return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v to %v (axis %d: %d vs %d)",
				shape, out, axis, shape[in], out[axis])
		}
	}
	return result, nil
}

// BroadcastTo returns the layout presented as shape out, repeating elements
// along expanded axes via stride 0.
func (l Layout) BroadcastTo(out Shape) (Layout, error) {
	strides, err := BroadcastStrides(l.shape, l.strides, out)
	if err != nil {
		return Layout{}, err
	}
	return Layout{shape: out.Clone(), strides: strides, offset: l.offset}, nil
}

// Broadcast brings several layouts to their common shape.
func Broadcast(layouts ...Layout) ([]Layout, error) {
	shapes := make([]Shape, len(layouts))
	for i, l := range layouts {
		shapes[i] = l.shape
	}
	out, err := BroadcastShapes(shapes...)
	if err != nil {
		return nil, err
	}
	result := make([]Layout, len(layouts))
	for i, l := range layouts {
		if result[i], err = l.BroadcastTo(out); err != nil {
			return nil, err
		}
	}
	return result, nil
}
