package ndarray

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/layout"
)

// Zeros creates an array filled with zeros.
func Zeros[T Element](shape layout.Shape, opts ...Option) (*Array[T], error) {
	return New[T](shape, opts...)
}

// Ones creates an array filled with ones.
func Ones[T Numeric](shape layout.Shape, opts ...Option) (*Array[T], error) {
	return Full(shape, T(1), opts...)
}

// Full creates an array filled with value.
func Full[T Element](shape layout.Shape, value T, opts ...Option) (*Array[T], error) {
	a, err := New[T](shape, append(opts[:len(opts):len(opts)], Uninitialized())...)
	if err != nil {
		return nil, err
	}
	data, err := a.data()
	if err != nil {
		_ = a.Release()
		return nil, err
	}
	for i := range data {
		data[i] = value
	}
	return a, nil
}

// Arange creates the rank-1 array start, start+step, ... up to but excluding stop.
func Arange[T Real](start, stop, step T, opts ...Option) (*Array[T], error) {
	if step == 0 {
		return nil, errors.Wrap(ErrInvalidShape, "arange: step must be non-zero")
	}
	n := int(math.Ceil((float64(stop) - float64(start)) / float64(step)))
	n = max(n, 0)

	a, err := New[T](layout.Shape{n}, opts...)
	if err != nil {
		return nil, err
	}
	data, err := a.data()
	if err != nil {
		_ = a.Release()
		return nil, err
	}
	v := start
	for i := range data {
		data[i] = v
		v += step
	}
	return a, nil
}

// Rand creates an array of uniform samples in [0, 1) drawn from rng.
// A nil rng uses the global generator.
func Rand[T Float](rng *rand.Rand, shape layout.Shape, opts ...Option) (*Array[T], error) {
	a, err := New[T](shape, append(opts[:len(opts):len(opts)], Uninitialized())...)
	if err != nil {
		return nil, err
	}
	sample := rand.Float64
	if rng != nil {
		sample = rng.Float64
	}
	data, err := a.data()
	if err != nil {
		_ = a.Release()
		return nil, err
	}
	for i := range data {
		data[i] = T(sample())
	}
	return a, nil
}

// Eye creates the n x n identity matrix.
func Eye[T Numeric](n int, opts ...Option) (*Array[T], error) {
	a, err := New[T](layout.Shape{n, n}, opts...)
	if err != nil {
		return nil, err
	}
	d, err := a.Diagonal()
	if err != nil {
		_ = a.Release()
		return nil, err
	}
	if err := Fill[T](d, 1); err != nil {
		_ = a.Release()
		return nil, err
	}
	return a, nil
}

// Diag builds a square matrix with v on its diagonal when v has rank 1, and
// copies out the diagonal when v has rank 2.
func Diag[T Element](v Strided[T], opts ...Option) (*Array[T], error) {
	c := v.base()
	switch c.Rank() {
	case 1:
		n := c.layout.Shape()[0]
		a, err := New[T](layout.Shape{n, n}, opts...)
		if err != nil {
			return nil, err
		}
		d, err := a.Diagonal()
		if err == nil {
			err = Assign[T](d, v)
		}
		if err != nil {
			_ = a.Release()
			return nil, err
		}
		return a, nil
	case 2:
		d, err := c.Diagonal()
		if err != nil {
			return nil, err
		}
		return Copy[T](d, opts...)
	default:
		return nil, errors.Wrapf(ErrDimensionMismatch, "diag: rank %d, want 1 or 2", c.Rank())
	}
}
