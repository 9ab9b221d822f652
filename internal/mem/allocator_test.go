package mem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteSize(t *testing.T) {
	n, err := ByteSize(10, 8)
	require.NoError(t, err)
	assert.Equal(t, 80, n)

	_, err = ByteSize(maxInt, 2)
	require.ErrorIs(t, err, ErrAllocationFailure)
	_, err = ByteSize(-3, 2)
	require.ErrorIs(t, err, ErrAllocationFailure)
}

func TestPoolAllocatorReuse(t *testing.T) {
	pool := NewPoolAllocator(nil, 2)

	b, err := pool.Allocate(100, InitZero)
	require.NoError(t, err)
	assert.Len(t, b.Data, 100)
	b.Data[0] = 42
	pool.Deallocate(b)
	assert.Equal(t, 1, pool.Stats().Pooled)

	// A smaller request in the same class reuses the buffer, uncleared for NoInit.
	again, err := pool.Allocate(50, NoInit)
	require.NoError(t, err)
	assert.Len(t, again.Data, 50)
	assert.Equal(t, byte(42), again.Data[0])

	stats := pool.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0, stats.Pooled)

	pool.Deallocate(again)
	zeroed, err := pool.Allocate(80, InitZero)
	require.NoError(t, err)
	assert.Equal(t, byte(0), zeroed.Data[0])
}

func TestPoolAllocatorBounded(t *testing.T) {
	pool := NewPoolAllocator(nil, 1)
	a, err := pool.Allocate(10, InitZero)
	require.NoError(t, err)
	b, err := pool.Allocate(10, InitZero)
	require.NoError(t, err)

	pool.Deallocate(a)
	pool.Deallocate(b)
	assert.Equal(t, 1, pool.Stats().Pooled)

	pool.Clear()
	assert.Equal(t, 0, pool.Stats().Pooled)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, SmallClass, classify(100))
	assert.Equal(t, MediumClass, classify(4096))
	assert.Equal(t, LargeClass, classify(2*1024*1024))
}

func TestStatsAllocatorPeak(t *testing.T) {
	stats := NewStatsAllocator(nil)
	a, err := stats.Allocate(64, InitZero)
	require.NoError(t, err)
	b, err := stats.Allocate(32, InitZero)
	require.NoError(t, err)
	stats.Deallocate(a)

	s := stats.Stats()
	assert.Equal(t, int64(32), s.InUse)
	assert.Equal(t, int64(96), s.Peak)
	assert.Equal(t, int64(1), s.Live())

	stats.Deallocate(b)
	assert.Equal(t, int64(0), stats.Stats().Live())
	assert.Equal(t, "stats(heap)", stats.Name())
}

func TestAlignedAllocator(t *testing.T) {
	a, err := NewAlignedAllocator(0)
	require.NoError(t, err)
	assert.Equal(t, CacheLineSize, a.Alignment())

	for _, size := range []int{1, 7, 100, 4096} {
		b, err := a.Allocate(size, InitZero)
		require.NoError(t, err)
		assert.Len(t, b.Data, size)
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(b.Data)))
		assert.Zero(t, addr%uintptr(a.Alignment()), "size %d", size)
	}

	_, err = NewAlignedAllocator(48)
	require.Error(t, err)
}

func TestAllocateThroughPoolAndAligned(t *testing.T) {
	aligned, err := NewAlignedAllocator(32)
	require.NoError(t, err)

	for _, alloc := range []Allocator{NewPoolAllocator(nil, 0), aligned} {
		s, err := Allocate[complex128](5, WithAllocator(alloc))
		require.NoError(t, err, alloc.Name())
		data, err := s.Data()
		require.NoError(t, err)
		data[4] = 1 + 2i
		assert.Len(t, data, 5)
		require.NoError(t, s.Release())
	}
}

func TestPoolOverAlignedKeepsAlignment(t *testing.T) {
	aligned, err := NewAlignedAllocator(64)
	require.NoError(t, err)
	pool := NewPoolAllocator(aligned, 4)

	addr := func(b Block) uintptr { return uintptr(unsafe.Pointer(unsafe.SliceData(b.Data))) }

	first, err := pool.Allocate(256, InitZero)
	require.NoError(t, err)
	assert.Zero(t, addr(first)%64)
	pool.Deallocate(first)

	for _, size := range []int{256, 200, 8} {
		b, err := pool.Allocate(size, NoInit)
		require.NoError(t, err)
		assert.Len(t, b.Data, size)
		assert.Equal(t, addr(first), addr(b), "size %d", size)
		assert.Zero(t, addr(b)%64, "size %d", size)
		pool.Deallocate(b)
	}
	assert.Equal(t, uint64(3), pool.Stats().Hits)
}
