//go:build !unix

package mem

import "github.com/pkg/errors"

// NewMmapAllocator is unavailable on this platform.
func NewMmapAllocator() (Allocator, error) {
	return nil, errors.Wrap(ErrAllocationFailure, "mmap allocator requires a unix platform")
}
