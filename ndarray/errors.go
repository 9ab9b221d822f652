// Copyright 2025 The Enda Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import "github.com/enda-lib/enda/internal/ndarray"

// Errors returned by array operations. Test with errors.Is.
var (
	// ErrDimensionMismatch: wrong number of indices or axes.
	ErrDimensionMismatch = ndarray.ErrDimensionMismatch
	// ErrIndexOutOfRange: an index or offset falls outside its axis or storage.
	ErrIndexOutOfRange = ndarray.ErrIndexOutOfRange
	// ErrInvalidSlice: a zero step or a malformed slice expression.
	ErrInvalidSlice = ndarray.ErrInvalidSlice
	// ErrShapeMismatch: shapes that do not broadcast or element counts that differ.
	ErrShapeMismatch = ndarray.ErrShapeMismatch
	// ErrNotReshapeable: the requested geometry needs a copy.
	ErrNotReshapeable = ndarray.ErrNotReshapeable
	// ErrInvalidShape: a negative extent.
	ErrInvalidShape = ndarray.ErrInvalidShape
	// ErrOwnershipViolation: use after release, a second release, sharing unique
	// storage or writing through a read-only view.
	ErrOwnershipViolation = ndarray.ErrOwnershipViolation
	// ErrAllocationFailure: memory could not be obtained.
	ErrAllocationFailure = ndarray.ErrAllocationFailure
	// ErrDivisionByZero: integer division by zero.
	ErrDivisionByZero = ndarray.ErrDivisionByZero
)
