// Package ndarray implements strided multi-dimensional arrays over
// reference-counted storage.
//
// An Array owns one reference to its Storage and must be released. A View
// aliases the Storage of an Array (or of another View) with its own geometry;
// it holds no reference and every access checks that the Storage is still alive.
// Slicing, broadcasting and the layout transforms never copy elements.
package ndarray

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
)

// Element is the constraint for array element types.
type Element = mem.Element

// Numeric is the constraint for element types with arithmetic.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64 |
		~complex64 | ~complex128
}

// Real is the constraint for ordered numeric element types.
type Real interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// Float is the constraint for floating-point element types.
type Float interface {
	~float32 | ~float64
}

// Strided is implemented by *Array and *View. It cannot be implemented
// outside this package.
type Strided[T Element] interface {
	Layout() layout.Layout
	Storage() *mem.Storage[T]
	ReadOnly() bool

	base() *core[T]
}

// core holds the geometry shared by Array and View.
type core[T Element] struct {
	storage  *mem.Storage[T]
	layout   layout.Layout
	readOnly bool
	// released is set for Arrays, nil for Views.
	released *atomic.Bool
}

func (c *core[T]) base() *core[T] { return c }

// Layout returns the geometry.
func (c *core[T]) Layout() layout.Layout { return c.layout }

// Storage returns the underlying storage.
func (c *core[T]) Storage() *mem.Storage[T] { return c.storage }

// ReadOnly reports whether writes are rejected, as for broadcast views.
func (c *core[T]) ReadOnly() bool { return c.readOnly }

// Shape returns a copy of the extents.
func (c *core[T]) Shape() layout.Shape { return c.layout.Shape() }

// Strides returns a copy of the strides in elements.
func (c *core[T]) Strides() layout.Strides { return c.layout.Strides() }

// Offset returns the storage offset of the first element.
func (c *core[T]) Offset() int { return c.layout.Offset() }

// Rank returns the number of axes.
func (c *core[T]) Rank() int { return c.layout.Rank() }

// Size returns the number of elements.
func (c *core[T]) Size() int { return c.layout.NumElements() }

// IsContiguous reports whether the elements fill a gap-free storage range in
// row-major, column-major or stride order.
func (c *core[T]) IsContiguous() bool { return c.layout.IsContiguous() }

// Order returns the layout order.
func (c *core[T]) Order() layout.Order { return c.layout.Order() }

// DType returns the runtime element type.
func (c *core[T]) DType() mem.DataType { return mem.DataTypeOf[T]() }

// data returns the storage slice after the liveness checks.
func (c *core[T]) data() ([]T, error) {
	if c.released != nil && c.released.Load() {
		return nil, errors.Wrap(ErrOwnershipViolation, "array has been released")
	}
	return c.storage.Data()
}

// writable returns the storage slice for a write.
func (c *core[T]) writable() ([]T, error) {
	if c.readOnly {
		return nil, errors.Wrap(ErrOwnershipViolation, "write through a read-only view")
	}
	return c.data()
}

// view derives a View with new geometry over the same storage.
func (c *core[T]) view(l layout.Layout, readOnly bool) (*View[T], error) {
	if _, err := c.data(); err != nil {
		return nil, err
	}
	return &View[T]{core[T]{storage: c.storage, layout: l, readOnly: c.readOnly || readOnly}}, nil
}

// Array owns one reference to its storage.
type Array[T Element] struct {
	core[T]
}

// View is a non-owning alias of array storage.
type View[T Element] struct {
	core[T]
}

// Option configures array allocation.
type Option func(*options)

type options struct {
	order layout.Order
	mem   []mem.Option
}

// WithOrder selects the memory order of a new array. The default is row-major.
func WithOrder(o layout.Order) Option {
	return func(opts *options) { opts.order = o }
}

// WithAllocator selects the allocator of a new array.
func WithAllocator(a mem.Allocator) Option {
	return func(opts *options) { opts.mem = append(opts.mem, mem.WithAllocator(a)) }
}

// Uninitialized skips zero-filling where the allocator allows it.
func Uninitialized() Option {
	return func(opts *options) { opts.mem = append(opts.mem, mem.Uninitialized()) }
}

// WithOwnership selects Shared (default) or Unique storage.
func WithOwnership(mode mem.Ownership) Option {
	return func(opts *options) { opts.mem = append(opts.mem, mem.WithOwnership(mode)) }
}

func buildOptions(opts []Option) options {
	o := options{order: layout.RowMajor}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New allocates a zero-filled array.
func New[T Element](shape layout.Shape, opts ...Option) (*Array[T], error) {
	o := buildOptions(opts)
	l, err := layout.Contiguous(shape, o.order)
	if err != nil {
		return nil, err
	}
	s, err := mem.Allocate[T](l.NumElements(), o.mem...)
	if err != nil {
		return nil, err
	}
	return newArray(s, l), nil
}

// Wrap takes ownership of one reference to s and exposes it with geometry l.
// Every offset reachable through l must lie within the storage.
func Wrap[T Element](s *mem.Storage[T], l layout.Layout) (*Array[T], error) {
	if !s.Alive() {
		return nil, errors.Wrap(ErrOwnershipViolation, "wrap: storage has been released")
	}
	if !l.Fits(s.Len()) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "wrap: %v exceeds storage of %d elements", l, s.Len())
	}
	return newArray(s, l), nil
}

// WrapSlice exposes an existing slice as a contiguous array of the given shape.
// With a nil release the caller keeps ownership of data; otherwise release is
// called once the array and all its shares are released.
func WrapSlice[T Element](data []T, shape layout.Shape, order layout.Order, release func()) (*Array[T], error) {
	l, err := layout.Contiguous(shape, order)
	if err != nil {
		return nil, err
	}
	if l.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "wrap: shape %v needs %d elements, slice has %d",
			shape, l.NumElements(), len(data))
	}
	return newArray(mem.Wrap(data, release), l), nil
}

// FromSlice allocates an array and copies data into it. data lists the
// elements in row-major index order whatever the memory order of the result.
func FromSlice[T Element](data []T, shape layout.Shape, opts ...Option) (*Array[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "from slice: shape %v needs %d elements, slice has %d",
			shape, shape.NumElements(), len(data))
	}
	src, err := WrapSlice(data, shape, layout.RowMajor, nil)
	if err != nil {
		return nil, err
	}
	return Copy[T](src, opts...)
}

// Copy deep-copies any array or view into a new contiguous array.
func Copy[T Element](src Strided[T], opts ...Option) (*Array[T], error) {
	c := src.base()
	if _, err := c.data(); err != nil {
		return nil, err
	}
	dst, err := New[T](c.layout.Shape(), append(opts[:len(opts):len(opts)], Uninitialized())...)
	if err != nil {
		return nil, err
	}
	if err := copyInto(&dst.core, c); err != nil {
		_ = dst.Release()
		return nil, err
	}
	return dst, nil
}

func newArray[T Element](s *mem.Storage[T], l layout.Layout) *Array[T] {
	return &Array[T]{core[T]{storage: s, layout: l, released: new(atomic.Bool)}}
}

// Clone returns a deep copy with the same memory order.
func (a *Array[T]) Clone() (*Array[T], error) {
	order := layout.RowMajor
	if a.layout.IsContiguous() {
		order = a.layout.Order()
	}
	return Copy[T](a, WithOrder(order), WithAllocator(a.storage.Allocator()))
}

// Share returns a second Array over the same storage and geometry. Each
// returned Array must be released. Unique storage cannot be shared.
func (a *Array[T]) Share() (*Array[T], error) {
	if _, err := a.data(); err != nil {
		return nil, err
	}
	s, err := a.storage.Share()
	if err != nil {
		return nil, err
	}
	return newArray(s, a.layout), nil
}

// Promote turns uniquely owned storage into shared storage.
func (a *Array[T]) Promote() error {
	return a.storage.Promote()
}

// Release drops the array's reference. Releasing twice is an ownership violation.
func (a *Array[T]) Release() error {
	if !a.released.CompareAndSwap(false, true) {
		return errors.Wrap(ErrOwnershipViolation, "array released twice")
	}
	return a.storage.Release()
}

// View returns a View of the whole array.
func (a *Array[T]) View() (*View[T], error) {
	return a.view(a.layout, false)
}

// Copy deep-copies the view into a new array.
func (v *View[T]) Copy(opts ...Option) (*Array[T], error) {
	return Copy[T](v, opts...)
}
