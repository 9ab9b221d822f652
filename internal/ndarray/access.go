package ndarray

import (
	"iter"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/layout"
)

// At reads the element at a multi-index. Negative indices count from the end.
func (c *core[T]) At(index ...int) (T, error) {
	var zero T
	data, err := c.data()
	if err != nil {
		return zero, err
	}
	off, err := c.layout.OffsetOf(index...)
	if err != nil {
		return zero, err
	}
	return data[off], nil
}

// Set writes the element at a multi-index.
func (c *core[T]) Set(value T, index ...int) error {
	data, err := c.writable()
	if err != nil {
		return err
	}
	off, err := c.layout.OffsetOf(index...)
	if err != nil {
		return err
	}
	data[off] = value
	return nil
}

// Item returns the single element of a size-1 array.
func (c *core[T]) Item() (T, error) {
	var zero T
	if c.Size() != 1 {
		return zero, errors.Wrapf(ErrShapeMismatch, "item: array of shape %v has %d elements", c.Shape(), c.Size())
	}
	data, err := c.data()
	if err != nil {
		return zero, err
	}
	return data[c.layout.Offset()], nil
}

// Slice applies a slice specification and returns a View.
func (c *core[T]) Slice(spec ...layout.Index) (*View[T], error) {
	l, err := c.layout.Slice(spec...)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// Reshape returns a row-major View with a new shape over the same elements.
// One extent may be -1 to be inferred. It fails with ErrNotReshapeable unless
// the source is row-major contiguous.
func (c *core[T]) Reshape(shape ...int) (*View[T], error) {
	return c.ReshapeOrder(layout.RowMajor, shape...)
}

// ReshapeOrder is Reshape under an explicit memory order.
func (c *core[T]) ReshapeOrder(order layout.Order, shape ...int) (*View[T], error) {
	l, err := c.layout.Reshape(shape, order)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// Flatten returns a rank-1 View. The source must be row-major contiguous.
func (c *core[T]) Flatten() (*View[T], error) {
	l, err := c.layout.Flatten(layout.RowMajor)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// BroadcastTo returns a read-only View expanded to shape.
func (c *core[T]) BroadcastTo(shape ...int) (*View[T], error) {
	l, err := c.layout.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}
	return c.view(l, true)
}

// Transpose returns a View with the axes reversed.
func (c *core[T]) Transpose() (*View[T], error) {
	return c.view(c.layout.Transpose(), false)
}

// Permute returns a View whose axis i is source axis axes[i].
func (c *core[T]) Permute(axes ...int) (*View[T], error) {
	l, err := c.layout.Permute(axes)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// SwapAxes returns a View with two axes exchanged.
func (c *core[T]) SwapAxes(i, j int) (*View[T], error) {
	l, err := c.layout.SwapAxes(i, j)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// Diagonal returns the main diagonal of a rank-2 array as a View.
func (c *core[T]) Diagonal() (*View[T], error) {
	l, err := c.layout.Diagonal()
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// GroupAxes returns a View with each group of axes merged into one axis.
// Each group must be contiguous in memory; see layout.Layout.GroupAxes.
func (c *core[T]) GroupAxes(groups ...[]int) (*View[T], error) {
	l, err := c.layout.GroupAxes(groups...)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// Squeeze removes an extent-1 axis.
func (c *core[T]) Squeeze(axis int) (*View[T], error) {
	l, err := c.layout.Squeeze(axis)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// Unsqueeze inserts an extent-1 axis.
func (c *core[T]) Unsqueeze(axis int) (*View[T], error) {
	l, err := c.layout.Unsqueeze(axis)
	if err != nil {
		return nil, err
	}
	return c.view(l, false)
}

// AsStrided returns a View with arbitrary geometry over the same storage.
// The geometry must stay inside the storage. Views where distinct indices
// alias one element are read-only.
func (c *core[T]) AsStrided(shape layout.Shape, strides layout.Strides, offset int) (*View[T], error) {
	l, err := layout.New(shape, strides, offset)
	if err != nil {
		return nil, err
	}
	if !l.Fits(c.storage.Len()) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "as strided: %v exceeds storage of %d elements", l, c.storage.Len())
	}
	return c.view(l, l.HasInternalOverlap())
}

// All yields every multi-index with its element in row-major index order.
// The index slice is reused between iterations. Iteration stops early if the
// storage is released.
func (c *core[T]) All() iter.Seq2[[]int, T] {
	return func(yield func([]int, T) bool) {
		data, err := c.data()
		if err != nil {
			return
		}
		shape, strides, base := c.layout.Shape(), c.layout.Strides(), c.layout.Offset()
		for idx := range shape.Indices() {
			off := base
			for axis, i := range idx {
				off += i * strides[axis]
			}
			if !yield(idx, data[off]) {
				return
			}
		}
	}
}

// ToSlice copies the elements into a new slice in row-major index order.
func (c *core[T]) ToSlice() ([]T, error) {
	if _, err := c.data(); err != nil {
		return nil, err
	}
	out := make([]T, 0, c.Size())
	for _, v := range c.All() {
		out = append(out, v)
	}
	return out, nil
}

// Raw is the unsafe escape for external numeric backends: the storage slice
// with the geometry of the array. Element idx lives at
// Data[Offset + sum(idx[i]*Strides[i])].
type Raw[T Element] struct {
	Data    []T
	Shape   layout.Shape
	Strides layout.Strides
	Offset  int
}

// Pointer returns the address of the first element, or nil for an empty array.
func (r Raw[T]) Pointer() unsafe.Pointer {
	if r.Shape.NumElements() == 0 || r.Offset >= len(r.Data) {
		return nil
	}
	return unsafe.Pointer(&r.Data[r.Offset])
}

// Raw returns the raw-buffer escape. The caller must keep the array alive
// while using it and must not write through a read-only view.
func (c *core[T]) Raw() (Raw[T], error) {
	data, err := c.data()
	if err != nil {
		return Raw[T]{}, err
	}
	return Raw[T]{
		Data:    data,
		Shape:   c.layout.Shape(),
		Strides: c.layout.Strides(),
		Offset:  c.layout.Offset(),
	}, nil
}

// RawOf returns the raw-buffer escape of any array or view.
func RawOf[T Element](a Strided[T]) (Raw[T], error) {
	return a.base().Raw()
}

// Broadcast returns read-only Views of the operands expanded to a common shape.
func Broadcast[T Element](operands ...Strided[T]) ([]*View[T], error) {
	layouts := make([]layout.Layout, len(operands))
	for i, op := range operands {
		layouts[i] = op.Layout()
	}
	out, err := layout.Broadcast(layouts...)
	if err != nil {
		return nil, err
	}
	views := make([]*View[T], len(operands))
	for i, op := range operands {
		v, err := op.base().view(out[i], true)
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	return views, nil
}
