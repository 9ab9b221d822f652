package mem

import (
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/cpu"
)

// CacheLineSize is the cache line size of the running architecture, or 64
// where the platform does not report one.
var CacheLineSize = func() int {
	if n := int(unsafe.Sizeof(cpu.CacheLinePad{})); n > 0 {
		return n
	}
	return 64
}()

// AlignedAllocator returns heap blocks whose first byte is aligned to a
// power-of-two boundary, by default the cache line.
type AlignedAllocator struct {
	align int
}

// NewAlignedAllocator creates an allocator with the given alignment.
// align <= 0 selects CacheLineSize.
func NewAlignedAllocator(align int) (*AlignedAllocator, error) {
	if align <= 0 {
		align = CacheLineSize
	}
	if align&(align-1) != 0 {
		return nil, errors.Errorf("mem: alignment %d is not a power of two", align)
	}
	return &AlignedAllocator{align: align}, nil
}

// Alignment returns the configured boundary in bytes.
func (a *AlignedAllocator) Alignment() int {
	return a.align
}

// Allocate implements Allocator.
func (a *AlignedAllocator) Allocate(size int, _ Init) (Block, error) {
	if size > maxInt-a.align {
		return Block{}, errors.Wrapf(ErrAllocationFailure, "%d bytes plus alignment overflow int", size)
	}
	raw, err := makeBytes(size + a.align)
	if err != nil {
		return Block{}, err
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := int((uintptr(a.align) - addr%uintptr(a.align)) % uintptr(a.align))
	return Block{Data: raw[off : off+size : off+size], raw: raw}, nil
}

// Deallocate implements Allocator.
func (a *AlignedAllocator) Deallocate(Block) {}

// Name implements Allocator.
func (a *AlignedAllocator) Name() string {
	return "aligned(" + strconv.Itoa(a.align) + ")"
}
