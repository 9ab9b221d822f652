// Copyright 2025 The Enda Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ndarray provides strided N-dimensional arrays over reference-counted
// storage.
//
// # Overview
//
// An Array owns a share of its Storage; a View borrows it. Both are described
// by a Layout: a shape, signed strides counted in elements, and an offset.
// Slicing, transposition, reshape and broadcasting produce Views without
// copying. This package provides:
//   - Arrays and Views generic over bool, integer, float and complex elements
//   - Row-major, column-major and arbitrary permuted memory orders
//   - NumPy-style slicing (ranges, negative steps, new axes, ellipsis)
//   - Broadcasting with read-only expanded views
//   - Elementwise operations and reductions that traverse memory in storage order
//   - Pluggable allocators and a raw-buffer escape for external numeric code
//
// # Basic Usage
//
//	import "github.com/enda-lib/enda/ndarray"
//
//	func main() {
//	    a, _ := ndarray.Arange[float64](0, 24, 1)
//	    m, _ := a.Reshape(2, 3, 4)
//
//	    // m[1, :, ::2]
//	    v, _ := m.Slice(ndarray.At(1), ndarray.All(), ndarray.RangeStep(0, 4, 2))
//	    fmt.Println(v)
//
//	    s, _ := ndarray.Sum[float64](v)
//	    _ = a.Release()
//	}
//
// # Ownership
//
// Storage is shared by default: Share hands out another owning Array and the
// memory is freed when the last owner calls Release. Unique storage refuses
// to be shared until promoted. Views never own; reading a View after every
// owner released fails with ErrOwnershipViolation.
//
// # Errors
//
// Every fallible operation returns an error wrapping one of the sentinels
// below, so callers test with errors.Is. Only the Must helpers panic.
package ndarray
