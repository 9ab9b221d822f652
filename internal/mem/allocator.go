package mem

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Init selects whether freshly allocated memory is cleared.
type Init int

const (
	// InitZero clears the memory. This is the default.
	InitZero Init = iota
	// NoInit leaves the memory as the allocator found it. Only allocators that
	// recycle buffers can return non-zero contents.
	NoInit
)

// Block is a region of memory handed out by an Allocator.
type Block struct {
	// Data is the usable region, exactly the requested size.
	Data []byte
	// raw is the full underlying region, which may be larger or offset.
	raw []byte
}

// Allocator obtains and returns raw memory for storages.
// Implementations must be safe for concurrent use.
type Allocator interface {
	// Allocate returns a block of exactly size bytes.
	Allocate(size int, init Init) (Block, error)
	// Deallocate returns a block obtained from Allocate. It is called exactly once per block.
	Deallocate(b Block)
	// Name identifies the allocator in logs and diagnostics.
	Name() string
}

// HeapAllocator allocates on the Go heap. Memory is always zeroed.
type HeapAllocator struct{}

// Heap is the default allocator.
var Heap Allocator = HeapAllocator{}

// Allocate implements Allocator.
func (HeapAllocator) Allocate(size int, _ Init) (Block, error) {
	data, err := makeBytes(size)
	if err != nil {
		return Block{}, err
	}
	return Block{Data: data, raw: data}, nil
}

// Deallocate implements Allocator. Heap memory is reclaimed by the garbage collector.
func (HeapAllocator) Deallocate(Block) {}

// Name implements Allocator.
func (HeapAllocator) Name() string {
	return "heap"
}

// makeBytes converts the runtime's panic for impossible sizes into ErrAllocationFailure.
func makeBytes(size int) (data []byte, err error) {
	if size < 0 {
		return nil, errors.Wrapf(ErrAllocationFailure, "negative size %d", size)
	}
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = errors.Wrapf(ErrAllocationFailure, "%d bytes: %v", size, r)
		}
	}()
	data = make([]byte, size)
	if klog.V(5).Enabled() {
		klog.Infof("heap: allocated %d bytes", size)
	}
	return data, nil
}

// ByteSize returns count*elemSize, failing on overflow.
func ByteSize(count, elemSize int) (int, error) {
	if count < 0 || elemSize < 0 {
		return 0, errors.Wrapf(ErrAllocationFailure, "invalid request of %d elements of %d bytes", count, elemSize)
	}
	if elemSize != 0 && count > maxInt/elemSize {
		return 0, errors.Wrapf(ErrAllocationFailure, "%d elements of %d bytes overflow int", count, elemSize)
	}
	return count * elemSize, nil
}

const maxInt = int(^uint(0) >> 1)

// String returns a short description of the block.
func (b Block) String() string {
	return fmt.Sprintf("Block{size=%d}", len(b.Data))
}
