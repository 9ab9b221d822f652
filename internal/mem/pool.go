package mem

import (
	"sync"

	"k8s.io/klog/v2"
)

// SizeClass represents different buffer size categories for pooling.
type SizeClass int

const (
	// SmallClass for buffers < 4KB.
	SmallClass SizeClass = iota
	// MediumClass for buffers 4KB-1MB.
	MediumClass
	// LargeClass for buffers > 1MB.
	LargeClass
)

const (
	// Size thresholds for buffer categories.
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	// DefaultMaxPooled is the default number of idle buffers kept per class.
	DefaultMaxPooled = 64
)

// PoolStats summarizes pool activity.
type PoolStats struct {
	Allocated uint64 // buffers obtained from the backing allocator
	Released  uint64 // buffers handed back to the pool
	Hits      uint64 // requests served from idle buffers
	Misses    uint64 // requests that needed a fresh buffer
	Pooled    int    // idle buffers currently held
}

// PoolAllocator recycles released buffers to reduce allocation overhead.
// Idle buffers are kept per size class and reused for requests they can hold.
type PoolAllocator struct {
	backing   Allocator
	maxPooled int

	mu      sync.Mutex
	classes [3][]Block

	stats PoolStats
}

// NewPoolAllocator creates a pool over backing (Heap if nil).
// maxPooled bounds idle buffers per class; <= 0 selects DefaultMaxPooled.
func NewPoolAllocator(backing Allocator, maxPooled int) *PoolAllocator {
	if backing == nil {
		backing = Heap
	}
	if maxPooled <= 0 {
		maxPooled = DefaultMaxPooled
	}
	return &PoolAllocator{backing: backing, maxPooled: maxPooled}
}

// Allocate implements Allocator. Recycled buffers are cleared only for InitZero.
func (p *PoolAllocator) Allocate(size int, init Init) (Block, error) {
	class := classify(size)

	p.mu.Lock()
	pool := p.classes[class]
	for i, b := range pool {
		if cap(b.Data) < size {
			continue
		}
		p.classes[class] = append(pool[:i], pool[i+1:]...)
		p.stats.Hits++
		p.mu.Unlock()

		// Data keeps the backing allocator's alignment; raw may start earlier.
		data := b.Data[:size]
		if init == InitZero {
			clear(data)
		}
		klog.V(4).Infof("pool: reused %d-byte buffer for %d bytes", cap(b.Data), size)
		return Block{Data: data, raw: b.raw}, nil
	}
	p.stats.Misses++
	p.mu.Unlock()

	// Rounded to whole words so a recycled buffer suits any element type.
	b, err := p.backing.Allocate((size+7)&^7, init)
	if err != nil {
		return Block{}, err
	}
	b.Data = b.Data[:size]

	p.mu.Lock()
	p.stats.Allocated++
	p.mu.Unlock()
	return b, nil
}

// Deallocate implements Allocator. The buffer is kept for reuse unless its class is full.
func (p *PoolAllocator) Deallocate(b Block) {
	class := classify(cap(b.Data))

	p.mu.Lock()
	p.stats.Released++
	if len(p.classes[class]) >= p.maxPooled {
		p.mu.Unlock()
		p.backing.Deallocate(b)
		return
	}
	p.classes[class] = append(p.classes[class], b)
	p.mu.Unlock()
}

// Name implements Allocator.
func (p *PoolAllocator) Name() string {
	return "pool(" + p.backing.Name() + ")"
}

// Clear returns every idle buffer to the backing allocator.
func (p *PoolAllocator) Clear() {
	p.mu.Lock()
	var idle []Block
	for c := range p.classes {
		idle = append(idle, p.classes[c]...)
		p.classes[c] = nil
	}
	p.mu.Unlock()

	for _, b := range idle {
		p.backing.Deallocate(b)
	}
}

// Stats returns statistics about pool usage.
func (p *PoolAllocator) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	for _, pool := range p.classes {
		s.Pooled += len(pool)
	}
	return s
}

// classify determines the size class for a buffer.
func classify(size int) SizeClass {
	if size < smallThreshold {
		return SmallClass
	}
	if size < mediumThreshold {
		return MediumClass
	}
	return LargeClass
}
