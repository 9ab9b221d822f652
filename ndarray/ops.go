// Copyright 2025 The Enda Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ndarray

import (
	"context"
	"math/rand/v2"

	"github.com/enda-lib/enda/internal/ndarray"
	"github.com/enda-lib/enda/internal/parallel"
)

// Elementwise operations

// Apply replaces every element of dst with f(element).
func Apply[T Element](dst Strided[T], f func(T) T) error {
	return ndarray.Apply(dst, f)
}

// Fill sets every element of dst to value.
func Fill[T Element](dst Strided[T], value T) error {
	return ndarray.Fill(dst, value)
}

// Map returns a new array of f applied to each element of src.
func Map[T, U Element](src Strided[T], f func(T) U, opts ...Option) (*Array[U], error) {
	return ndarray.Map(src, f, opts...)
}

// ZipWith broadcasts a against b and returns f of each pair.
func ZipWith[A, B, R Element](a Strided[A], b Strided[B], f func(A, B) R, opts ...Option) (*Array[R], error) {
	return ndarray.ZipWith(a, b, f, opts...)
}

// Update sets dst[i] = f(dst[i], src[i]) with src broadcast to dst's shape.
func Update[T Element](dst, src Strided[T], f func(d, s T) T) error {
	return ndarray.Update(dst, src, f)
}

// Assign copies src, broadcast to dst's shape, into dst. Overlapping operands
// are handled.
//
// Example:
//
//	row, _ := ndarray.FromSlice([]float64{1, 2, 3}, ndarray.Shape{3})
//	m, _ := ndarray.Zeros[float64](ndarray.Shape{4, 3})
//	_ = ndarray.Assign[float64](m, row) // every row becomes [1 2 3]
func Assign[T Element](dst, src Strided[T]) error {
	return ndarray.Assign(dst, src)
}

// Add returns a + b with broadcasting.
func Add[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	return ndarray.Add(a, b, opts...)
}

// Sub returns a - b with broadcasting.
func Sub[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	return ndarray.Sub(a, b, opts...)
}

// Mul returns the elementwise product with broadcasting.
func Mul[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	return ndarray.Mul(a, b, opts...)
}

// Div returns a / b with broadcasting. Integer division by zero fails.
func Div[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	return ndarray.Div(a, b, opts...)
}

// Scale returns k * a.
func Scale[T Numeric](a Strided[T], k T, opts ...Option) (*Array[T], error) {
	return ndarray.Scale(a, k, opts...)
}

// Reductions

// Fold combines the elements in storage order.
func Fold[T Element, A any](a Strided[T], init A, f func(A, T) A) (A, error) {
	return ndarray.Fold(a, init, f)
}

// Sum returns the sum of all elements, zero for an empty array.
func Sum[T Numeric](a Strided[T]) (T, error) { return ndarray.Sum(a) }

// Product returns the product of all elements, one for an empty array.
func Product[T Numeric](a Strided[T]) (T, error) { return ndarray.Product(a) }

// AnyOf reports whether pred holds for some element.
func AnyOf[T Element](a Strided[T], pred func(T) bool) (bool, error) {
	return ndarray.Any(a, pred)
}

// AllOf reports whether pred holds for every element.
func AllOf[T Element](a Strided[T], pred func(T) bool) (bool, error) {
	return ndarray.All(a, pred)
}

// Min returns the smallest element.
func Min[T Real](a Strided[T]) (T, error) { return ndarray.Min(a) }

// Max returns the largest element.
func Max[T Real](a Strided[T]) (T, error) { return ndarray.Max(a) }

// Norm returns the Frobenius norm.
func Norm[T Float](a Strided[T]) (float64, error) { return ndarray.Norm(a) }

// Equal reports whether a and b have the same shape and elements.
func Equal[T Element](a, b Strided[T]) (bool, error) { return ndarray.Equal(a, b) }

// AllClose reports |a-b| <= atol + rtol*|b| elementwise, with broadcasting.
func AllClose[T Float](a, b Strided[T], rtol, atol float64) (bool, error) {
	return ndarray.AllClose(a, b, rtol, atol)
}

// Trace returns the sum of the diagonal of a matrix.
func Trace[T Numeric](a Strided[T]) (T, error) { return ndarray.Trace(a) }

// Rand creates an array of uniform values in [0, 1) drawn from rng.
//
// Example:
//
//	rng := rand.New(rand.NewPCG(1, 2))
//	x, _ := ndarray.Rand[float32](rng, ndarray.Shape{2, 3})
func Rand[T Float](rng *rand.Rand, shape Shape, opts ...Option) (*Array[T], error) {
	return ndarray.Rand[T](rng, shape, opts...)
}

// Parallel traversal

// ParallelConfig controls parallel traversal.
type ParallelConfig = parallel.Config

// DefaultParallelConfig uses every CPU for arrays of at least a few thousand elements.
func DefaultParallelConfig() ParallelConfig { return parallel.DefaultConfig() }

// ApplyParallel is Apply split across workers. f must be safe for concurrent use.
func ApplyParallel[T Element](ctx context.Context, dst Strided[T], f func(T) T, cfg ParallelConfig) error {
	return ndarray.ApplyParallel(ctx, dst, f, cfg)
}

// SumParallel is Sum split across workers; the result is identical to Sum.
func SumParallel[T Numeric](ctx context.Context, a Strided[T], cfg ParallelConfig) (T, error) {
	return ndarray.SumParallel(ctx, a, cfg)
}
