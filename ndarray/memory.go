// Copyright 2025 The Enda Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import "github.com/enda-lib/enda/internal/mem"

// Allocator provides byte blocks for storage.
type Allocator = mem.Allocator

// PoolAllocator recycles released blocks by size class.
type PoolAllocator = mem.PoolAllocator

// StatsAllocator counts bytes and calls passing through another allocator.
type StatsAllocator = mem.StatsAllocator

// AllocStats is a snapshot of a StatsAllocator.
type AllocStats = mem.AllocStats

// PoolStats is a snapshot of a PoolAllocator.
type PoolStats = mem.PoolStats

// Heap is the default allocator backed by the Go heap.
var Heap = mem.Heap

// NewPoolAllocator returns a pool over backing keeping at most maxPooled idle
// blocks per size class. A nil backing uses Heap.
func NewPoolAllocator(backing Allocator, maxPooled int) *PoolAllocator {
	return mem.NewPoolAllocator(backing, maxPooled)
}

// NewStatsAllocator wraps inner, or Heap when nil, with usage counters.
func NewStatsAllocator(inner Allocator) *StatsAllocator {
	return mem.NewStatsAllocator(inner)
}

// NewAlignedAllocator returns blocks aligned to align bytes, a power of two.
// Zero selects the CPU cache line.
func NewAlignedAllocator(align int) (Allocator, error) {
	a, err := mem.NewAlignedAllocator(align)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// NewMmapAllocator returns an allocator of anonymous memory mappings.
func NewMmapAllocator() (Allocator, error) {
	return mem.NewMmapAllocator()
}
