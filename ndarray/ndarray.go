// Copyright 2025 The Enda Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
	"github.com/enda-lib/enda/internal/ndarray"
)

// Type aliases for public API

// Element is the constraint for array element types.
type Element = ndarray.Element

// Numeric is the constraint for element types with arithmetic.
type Numeric = ndarray.Numeric

// Real is the constraint for ordered numeric element types.
type Real = ndarray.Real

// Float is the constraint for floating-point element types.
type Float = ndarray.Float

// DataType identifies an element type at runtime.
type DataType = mem.DataType

// Data type constants.
const (
	Bool       DataType = mem.Bool
	Int8       DataType = mem.Int8
	Int16      DataType = mem.Int16
	Int32      DataType = mem.Int32
	Int64      DataType = mem.Int64
	Int        DataType = mem.Int
	Uint8      DataType = mem.Uint8
	Uint16     DataType = mem.Uint16
	Uint32     DataType = mem.Uint32
	Uint64     DataType = mem.Uint64
	Uint       DataType = mem.Uint
	Float32    DataType = mem.Float32
	Float64    DataType = mem.Float64
	Complex64  DataType = mem.Complex64
	Complex128 DataType = mem.Complex128
)

// Shape is the extent of each axis.
// Example: Shape{2, 3, 4} is a 3D array with 24 elements.
type Shape = layout.Shape

// Strides is the signed element step of each axis.
type Strides = layout.Strides

// Layout maps multi-indices to storage offsets.
type Layout = layout.Layout

// Order is a memory order: row-major, column-major or a stride permutation.
type Order = layout.Order

// Permutation is a reordering of axes.
type Permutation = layout.Permutation

// Memory orders.
var (
	RowMajor    = layout.RowMajor
	ColumnMajor = layout.ColumnMajor
)

// Array is an owning handle: a layout plus one share of the storage.
// Release it when done.
type Array[T Element] = ndarray.Array[T]

// View is a non-owning window onto another Array's storage.
type View[T Element] = ndarray.View[T]

// Strided is implemented by Array and View. Every operation accepts either.
type Strided[T Element] = ndarray.Strided[T]

// Raw is the unsafe escape for external numeric code.
type Raw[T Element] = ndarray.Raw[T]

// Storage is a reference-counted element buffer.
type Storage[T Element] = mem.Storage[T]

// Ownership is the sharing mode of a Storage.
type Ownership = mem.Ownership

// Ownership modes.
const (
	Shared   Ownership = mem.Shared
	Unique   Ownership = mem.Unique
	Borrowed Ownership = mem.Borrowed
)

// Option configures array creation.
type Option = ndarray.Option

// WithOrder sets the memory order of a new array (default RowMajor).
func WithOrder(o Order) Option { return ndarray.WithOrder(o) }

// WithAllocator sets the allocator of a new array (default the Go heap).
func WithAllocator(a Allocator) Option { return ndarray.WithAllocator(a) }

// Uninitialized skips clearing recycled memory.
func Uninitialized() Option { return ndarray.Uninitialized() }

// WithOwnership sets the ownership mode of a new array's storage.
func WithOwnership(mode Ownership) Option { return ndarray.WithOwnership(mode) }

// ParseOrder parses "row-major", "column-major", "C", "F" or a comma-separated
// axis permutation listing axes from the slowest to the fastest varying.
func ParseOrder(s string) (Order, error) { return layout.ParseOrder(s) }

// StrideOrder returns the memory order whose strides grow along axes, listed
// from the slowest to the fastest varying.
func StrideOrder(axes Permutation) (Order, error) { return layout.StrideOrder(axes) }

// NewLayout validates a layout.
func NewLayout(shape Shape, strides Strides, offset int) (Layout, error) {
	return layout.New(shape, strides, offset)
}

// DataTypeOf returns the runtime data type of T.
func DataTypeOf[T Element]() DataType { return mem.DataTypeOf[T]() }

// Creation functions

// New allocates an array of the given shape.
//
// Example:
//
//	a, err := ndarray.New[float32](ndarray.Shape{2, 3}, ndarray.WithOrder(ndarray.ColumnMajor))
func New[T Element](shape Shape, opts ...Option) (*Array[T], error) {
	return ndarray.New[T](shape, opts...)
}

// FromSlice copies data, given in row-major index order, into a new array.
//
// Example:
//
//	a, err := ndarray.FromSlice([]int{1, 2, 3, 4, 5, 6}, ndarray.Shape{2, 3})
func FromSlice[T Element](data []T, shape Shape, opts ...Option) (*Array[T], error) {
	return ndarray.FromSlice(data, shape, opts...)
}

// WrapSlice builds an array over data without copying. With a nil release the
// array borrows data; otherwise release runs when the last owner lets go.
func WrapSlice[T Element](data []T, shape Shape, order Order, release func()) (*Array[T], error) {
	return ndarray.WrapSlice(data, shape, order, release)
}

// Wrap builds an array over existing storage, adopting one reference to it.
func Wrap[T Element](s *Storage[T], l Layout) (*Array[T], error) {
	return ndarray.Wrap(s, l)
}

// WrapPointer builds an array over foreign memory of capacity elements.
// release is called once the last owner lets go. On error the memory is left
// untouched and release is never called.
func WrapPointer[T Element](ptr unsafe.Pointer, capacity int, shape Shape, order Order, release func()) (*Array[T], error) {
	l, err := layout.Contiguous(shape, order)
	if err != nil {
		return nil, err
	}
	if !l.Fits(capacity) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "wrap pointer: %v exceeds %d elements", l, capacity)
	}
	s, err := mem.WrapPointer[T](ptr, capacity, release)
	if err != nil {
		return nil, err
	}
	return ndarray.Wrap(s, l)
}

// Copy returns a contiguous owning copy of src.
func Copy[T Element](src Strided[T], opts ...Option) (*Array[T], error) {
	return ndarray.Copy(src, opts...)
}

// Zeros creates an array filled with zeros.
func Zeros[T Element](shape Shape, opts ...Option) (*Array[T], error) {
	return ndarray.Zeros[T](shape, opts...)
}

// Ones creates an array filled with ones.
func Ones[T Numeric](shape Shape, opts ...Option) (*Array[T], error) {
	return ndarray.Ones[T](shape, opts...)
}

// Full creates an array filled with value.
func Full[T Element](shape Shape, value T, opts ...Option) (*Array[T], error) {
	return ndarray.Full(shape, value, opts...)
}

// Arange creates a 1D array of start, start+step, ... below stop.
//
// Example:
//
//	x, _ := ndarray.Arange[float64](0, 1, 0.25) // [0 0.25 0.5 0.75]
func Arange[T Real](start, stop, step T, opts ...Option) (*Array[T], error) {
	return ndarray.Arange(start, stop, step, opts...)
}

// Eye creates an n×n identity matrix.
func Eye[T Numeric](n int, opts ...Option) (*Array[T], error) {
	return ndarray.Eye[T](n, opts...)
}

// Diag creates a square matrix with v on its diagonal.
func Diag[T Element](v Strided[T], opts ...Option) (*Array[T], error) {
	return ndarray.Diag(v, opts...)
}

// RawOf returns the raw-buffer escape of an array or view.
func RawOf[T Element](a Strided[T]) (Raw[T], error) {
	return ndarray.RawOf(a)
}

// Broadcast expands the operands to their common shape as read-only views.
func Broadcast[T Element](operands ...Strided[T]) ([]*View[T], error) {
	return ndarray.Broadcast(operands...)
}

// BroadcastShapes returns the shape the given shapes broadcast to.
func BroadcastShapes(shapes ...Shape) (Shape, error) {
	return layout.BroadcastShapes(shapes...)
}
