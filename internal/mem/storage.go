package mem

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Ownership is the aliasing mode of a Storage.
type Ownership int

const (
	// Shared storage is reference counted and freed when the last holder releases it.
	Shared Ownership = iota
	// Unique storage has exactly one owner and refuses to be shared until promoted.
	Unique
	// Borrowed storage references memory owned elsewhere and never frees it.
	Borrowed
)

// String returns a human-readable ownership name.
func (o Ownership) String() string {
	switch o {
	case Shared:
		return "shared"
	case Unique:
		return "unique"
	case Borrowed:
		return "borrowed"
	default:
		return "unknown"
	}
}

// liveness is implemented by anything a borrowed storage depends on.
type liveness interface {
	Alive() bool
}

// Storage is a contiguous, reference-counted buffer of elements.
//
// Owning storages (Shared, Unique) free their memory exactly once, when the
// reference count drops to zero. A Borrowed storage never frees memory; if it
// was borrowed from another Storage, it reports itself dead once the parent is.
type Storage[T Element] struct {
	data  []T
	dtype DataType
	mode  atomic.Int32

	refs  atomic.Int32
	freed atomic.Bool

	alloc     Allocator
	block     Block
	onRelease func()
	parent    liveness

	mu sync.Mutex // serializes the free path
}

// Option configures Allocate.
type Option func(*options)

type options struct {
	alloc Allocator
	init  Init
	mode  Ownership
}

// WithAllocator selects the allocator. The default is Heap.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.alloc = a
		}
	}
}

// Uninitialized skips zeroing where the allocator allows it.
func Uninitialized() Option {
	return func(o *options) { o.init = NoInit }
}

// WithOwnership selects the initial ownership mode: Shared (default) or Unique.
func WithOwnership(mode Ownership) Option {
	return func(o *options) { o.mode = mode }
}

// Allocate creates an owning storage of capacity elements with a reference count of one.
func Allocate[T Element](capacity int, opts ...Option) (*Storage[T], error) {
	o := options{alloc: Heap, init: InitZero, mode: Shared}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mode == Borrowed {
		return nil, errors.Wrap(ErrOwnershipViolation, "cannot allocate borrowed storage")
	}

	dtype := DataTypeOf[T]()
	if dtype == Bool {
		// Recycled bytes may hold values other than 0 and 1.
		o.init = InitZero
	}
	size, err := ByteSize(capacity, dtype.Size())
	if err != nil {
		return nil, err
	}
	block, err := o.alloc.Allocate(size, o.init)
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d x %s via %s", capacity, dtype, o.alloc.Name())
	}

	s := &Storage[T]{
		data:  bytesAs[T](block.Data, capacity),
		dtype: dtype,
		alloc: o.alloc,
		block: block,
	}
	s.mode.Store(int32(o.mode))
	s.refs.Store(1)
	runtime.SetFinalizer(s, finalizeStorage[T])
	klog.V(2).Infof("storage: allocated %d x %s (%d bytes) via %s, %s", capacity, dtype, size, o.alloc.Name(), o.mode)
	return s, nil
}

// Wrap adopts an existing slice. With a nil release the storage is Borrowed and
// the caller keeps ownership. Otherwise it is Shared and release runs exactly
// once, when the last reference is released.
func Wrap[T Element](data []T, release func()) *Storage[T] {
	s := &Storage[T]{
		data:      data,
		dtype:     DataTypeOf[T](),
		onRelease: release,
	}
	s.refs.Store(1)
	if release == nil {
		s.mode.Store(int32(Borrowed))
		return s
	}
	s.mode.Store(int32(Shared))
	runtime.SetFinalizer(s, finalizeStorage[T])
	return s
}

// WrapPointer adopts capacity elements at ptr, as obtained from foreign code.
// Ownership follows Wrap.
func WrapPointer[T Element](ptr unsafe.Pointer, capacity int, release func()) (*Storage[T], error) {
	if capacity < 0 {
		return nil, errors.Wrapf(ErrAllocationFailure, "negative capacity %d", capacity)
	}
	if ptr == nil && capacity > 0 {
		return nil, errors.Wrapf(ErrAllocationFailure, "nil pointer with capacity %d", capacity)
	}
	var data []T
	if capacity > 0 {
		data = unsafe.Slice((*T)(ptr), capacity)
	}
	return Wrap(data, release), nil
}

// Data returns the element slice. It fails once the storage, or the storage
// it was borrowed from, has been released.
func (s *Storage[T]) Data() ([]T, error) {
	if !s.Alive() {
		return nil, errors.Wrap(ErrOwnershipViolation, "storage has been released")
	}
	return s.data, nil
}

// Alive reports whether the memory is still valid.
func (s *Storage[T]) Alive() bool {
	if s.freed.Load() {
		return false
	}
	if s.parent != nil {
		return s.parent.Alive()
	}
	return true
}

// Len returns the capacity in elements.
func (s *Storage[T]) Len() int {
	return len(s.data)
}

// DType returns the runtime element type.
func (s *Storage[T]) DType() DataType {
	return s.dtype
}

// Mode returns the current ownership mode.
func (s *Storage[T]) Mode() Ownership {
	return Ownership(s.mode.Load())
}

// RefCount returns the current reference count.
func (s *Storage[T]) RefCount() int {
	return int(s.refs.Load())
}

// Allocator returns the allocator backing an owning storage, or nil.
func (s *Storage[T]) Allocator() Allocator {
	return s.alloc
}

// Share adds a reference and returns s. Unique storage must be promoted first.
func (s *Storage[T]) Share() (*Storage[T], error) {
	if s.Mode() == Unique {
		return nil, errors.Wrap(ErrOwnershipViolation, "cannot share uniquely owned storage")
	}
	for {
		n := s.refs.Load()
		if n <= 0 || s.freed.Load() {
			return nil, errors.Wrap(ErrOwnershipViolation, "cannot share released storage")
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return s, nil
		}
	}
}

// Promote turns Unique storage into Shared storage. It is a no-op for Shared.
func (s *Storage[T]) Promote() error {
	switch s.Mode() {
	case Unique:
		s.mode.CompareAndSwap(int32(Unique), int32(Shared))
		return nil
	case Shared:
		return nil
	default:
		return errors.Wrap(ErrOwnershipViolation, "borrowed storage cannot be promoted")
	}
}

// Release drops one reference. The memory is freed when the count reaches zero.
// Releasing more times than the storage was shared returns ErrOwnershipViolation.
func (s *Storage[T]) Release() error {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return errors.Wrap(ErrOwnershipViolation, "storage released more times than shared")
		}
		if !s.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n == 1 {
			s.free()
		}
		return nil
	}
}

// Borrow returns a Borrowed storage over length elements starting at offset.
// The result does not keep s alive and reports itself dead once s is freed.
func (s *Storage[T]) Borrow(offset, length int) (*Storage[T], error) {
	data, err := s.Data()
	if err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 || offset > len(data)-length {
		return nil, errors.Wrapf(ErrOwnershipViolation, "borrow [%d:%d+%d] outside storage of %d", offset, offset, length, len(data))
	}
	b := &Storage[T]{
		data:   data[offset : offset+length : offset+length],
		dtype:  s.dtype,
		parent: s,
	}
	b.mode.Store(int32(Borrowed))
	b.refs.Store(1)
	return b, nil
}

func (s *Storage[T]) free() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.freed.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(s, nil)

	switch {
	case s.alloc != nil:
		s.alloc.Deallocate(s.block)
		s.block = Block{}
	case s.onRelease != nil:
		s.onRelease()
	}
	klog.V(2).Infof("storage: freed %d x %s", len(s.data), s.dtype)
}

// finalizeStorage frees storage that became unreachable without being released.
func finalizeStorage[T Element](s *Storage[T]) {
	if s.freed.Load() || s.Mode() == Borrowed {
		return
	}
	klog.Warningf("storage: %d x %s leaked with %d outstanding references", len(s.data), s.dtype, s.refs.Load())
	s.free()
}

// bytesAs reinterprets a byte block as count elements of T.
func bytesAs[T Element](b []byte, count int) []T {
	if count == 0 || len(b) == 0 {
		return []T{}
	}
	//nolint:gosec // block size is count*sizeof(T), checked by ByteSize
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), count)
}
