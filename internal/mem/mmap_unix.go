//go:build unix

package mem

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

// MmapAllocator maps anonymous private pages for each block. The memory lives
// outside the Go heap and is returned to the OS on Deallocate.
type MmapAllocator struct{}

// NewMmapAllocator returns the anonymous-mapping allocator.
func NewMmapAllocator() (Allocator, error) {
	return MmapAllocator{}, nil
}

// Allocate implements Allocator. Fresh anonymous mappings are always zeroed.
func (MmapAllocator) Allocate(size int, _ Init) (Block, error) {
	if size < 0 {
		return Block{}, errors.Wrapf(ErrAllocationFailure, "negative size %d", size)
	}
	if size == 0 {
		return Block{Data: []byte{}}, nil
	}
	raw, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Block{}, errors.Wrapf(ErrAllocationFailure, "mmap %d bytes: %v", size, err)
	}
	klog.V(4).Infof("mmap: mapped %d bytes", size)
	return Block{Data: raw[:size:size], raw: raw}, nil
}

// Deallocate implements Allocator.
func (MmapAllocator) Deallocate(b Block) {
	if len(b.raw) == 0 {
		return
	}
	if err := unix.Munmap(b.raw); err != nil {
		klog.Warningf("mmap: munmap of %d bytes failed: %v", len(b.raw), err)
	}
}

// Name implements Allocator.
func (MmapAllocator) Name() string {
	return "mmap"
}
