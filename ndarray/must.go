// Copyright 2025 The Enda Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

// Must returns v or panics with err. It suits tests and examples where a
// failure is a programming error.
//
// Example:
//
//	a := ndarray.Must(ndarray.Zeros[float64](ndarray.Shape{2, 2}))
func Must[V any](v V, err error) V {
	if err != nil {
		panic(err)
	}
	return v
}

// MustDo panics if err is non-nil.
func MustDo(err error) {
	if err != nil {
		panic(err)
	}
}
