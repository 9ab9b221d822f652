// Copyright 2025 The Enda Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import "github.com/enda-lib/enda/internal/layout"

// Index is one component of a slice expression.
type Index = layout.Index

// At selects a single position and drops the axis. Negative i counts from the end.
func At(i int) Index { return layout.At(i) }

// All keeps a whole axis, like ":".
func All() Index { return layout.All() }

// Range selects [start, stop) with step 1.
func Range(start, stop int) Index { return layout.Range(start, stop) }

// RangeStep selects start, start+step, ... before stop. A negative step walks
// backwards.
//
// Example:
//
//	v, _ := a.Slice(ndarray.RangeStep(-1, -7, -2)) // a[-1:-7:-2]
func RangeStep(start, stop, step int) Index { return layout.RangeStep(start, stop, step) }

// From selects [start, end).
func From(start int) Index { return layout.From(start) }

// To selects [0, stop).
func To(stop int) Index { return layout.To(stop) }

// NewAxis inserts an axis of extent 1.
func NewAxis() Index { return layout.NewAxis() }

// Ellipsis expands to as many All() as needed to cover the remaining axes.
func Ellipsis() Index { return layout.Ellipsis() }
