package mem

import "sync/atomic"

// AllocStats is a snapshot of a StatsAllocator's counters.
type AllocStats struct {
	InUse       int64 // bytes currently allocated, by block capacity
	Peak        int64 // high-water mark of InUse
	Allocations int64
	Frees       int64
}

// Live returns the number of blocks allocated and not yet freed.
func (s AllocStats) Live() int64 {
	return s.Allocations - s.Frees
}

// StatsAllocator wraps an allocator and tracks usage.
// It is how leak and double-free checks observe storage lifetimes.
type StatsAllocator struct {
	inner Allocator

	inUse       atomic.Int64
	peak        atomic.Int64
	allocations atomic.Int64
	frees       atomic.Int64
}

// NewStatsAllocator wraps inner (Heap if nil).
func NewStatsAllocator(inner Allocator) *StatsAllocator {
	if inner == nil {
		inner = Heap
	}
	return &StatsAllocator{inner: inner}
}

// Allocate implements Allocator.
func (s *StatsAllocator) Allocate(size int, init Init) (Block, error) {
	b, err := s.inner.Allocate(size, init)
	if err != nil {
		return Block{}, err
	}
	s.allocations.Add(1)
	used := s.inUse.Add(int64(cap(b.Data)))
	for {
		peak := s.peak.Load()
		if used <= peak || s.peak.CompareAndSwap(peak, used) {
			break
		}
	}
	return b, nil
}

// Deallocate implements Allocator.
func (s *StatsAllocator) Deallocate(b Block) {
	s.frees.Add(1)
	s.inUse.Add(-int64(cap(b.Data)))
	s.inner.Deallocate(b)
}

// Name implements Allocator.
func (s *StatsAllocator) Name() string {
	return "stats(" + s.inner.Name() + ")"
}

// Stats returns the current counters.
func (s *StatsAllocator) Stats() AllocStats {
	return AllocStats{
		InUse:       s.inUse.Load(),
		Peak:        s.peak.Load(),
		Allocations: s.allocations.Load(),
		Frees:       s.frees.Load(),
	}
}
