package ndarray

import (
	"math"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/nditer"
)

// sumBlocks is the number of partial sums a reduction is split into. Sum and
// SumParallel share it so both add in the same order.
const sumBlocks = 64

// elements calls fn for every element of a in storage order until fn returns false.
func elements[T Element](a Strided[T], fn func(T) bool) error {
	c := a.base()
	data, err := c.data()
	if err != nil {
		return err
	}
	plan, err := planFor(c.layout.Shape(), c.layout)
	if err != nil {
		return err
	}
	step := plan.InnerStrides()[0]
	for offs, n := range plan.Runs() {
		off := offs[0]
		for range n {
			if !fn(data[off]) {
				return nil
			}
			off += step
		}
	}
	return nil
}

// Fold reduces the elements of a with f, visiting them in storage order.
func Fold[T Element, A any](a Strided[T], init A, f func(A, T) A) (A, error) {
	acc := init
	err := elements(a, func(v T) bool {
		acc = f(acc, v)
		return true
	})
	return acc, err
}

// sumPlan adds the elements one plan visits.
func sumPlan[T Numeric](plan *nditer.Plan, data []T) T {
	var total T
	step := plan.InnerStrides()[0]
	for offs, n := range plan.Runs() {
		off := offs[0]
		for range n {
			total += data[off]
			off += step
		}
	}
	return total
}

func sumParts[T Numeric](a Strided[T]) ([]*nditer.Plan, []T, error) {
	c := a.base()
	data, err := c.data()
	if err != nil {
		return nil, nil, err
	}
	plan, err := planFor(c.layout.Shape(), c.layout)
	if err != nil {
		return nil, nil, err
	}
	return plan.Split(sumBlocks), data, nil
}

// Sum returns the sum of all elements. The empty sum is zero.
func Sum[T Numeric](a Strided[T]) (T, error) {
	parts, data, err := sumParts(a)
	if err != nil {
		var zero T
		return zero, err
	}
	var total T
	for _, p := range parts {
		total += sumPlan(p, data)
	}
	return total, nil
}

// Product returns the product of all elements. The empty product is one.
func Product[T Numeric](a Strided[T]) (T, error) {
	return Fold(a, T(1), func(acc, v T) T { return acc * v })
}

// Any reports whether pred holds for some element. It stops at the first match.
func Any[T Element](a Strided[T], pred func(T) bool) (bool, error) {
	found := false
	err := elements(a, func(v T) bool {
		found = pred(v)
		return !found
	})
	return found, err
}

// All reports whether pred holds for every element. It stops at the first miss.
func All[T Element](a Strided[T], pred func(T) bool) (bool, error) {
	ok := true
	err := elements(a, func(v T) bool {
		ok = pred(v)
		return ok
	})
	return ok, err
}

// Min returns the smallest element. Empty arrays have none.
func Min[T Real](a Strided[T]) (T, error) {
	return extreme(a, "min", func(x, best T) bool { return x < best })
}

// Max returns the largest element.
func Max[T Real](a Strided[T]) (T, error) {
	return extreme(a, "max", func(x, best T) bool { return x > best })
}

func extreme[T Real](a Strided[T], op string, better func(x, best T) bool) (T, error) {
	var best T
	seen := false
	err := elements(a, func(v T) bool {
		if !seen || better(v, best) {
			best, seen = v, true
		}
		return true
	})
	if err != nil {
		return best, err
	}
	if !seen {
		return best, errors.Wrapf(ErrShapeMismatch, "%s of an empty array", op)
	}
	return best, nil
}

// Norm returns the Frobenius norm, the square root of the sum of squares.
func Norm[T Float](a Strided[T]) (float64, error) {
	sq, err := Fold(a, 0.0, func(acc float64, v T) float64 {
		return acc + float64(v)*float64(v)
	})
	return math.Sqrt(sq), err
}

// Equal reports whether a and b have the same shape and elements.
func Equal[T Element](a, b Strided[T]) (bool, error) {
	ca, cb := a.base(), b.base()
	sa, err := ca.data()
	if err != nil {
		return false, err
	}
	sb, err := cb.data()
	if err != nil {
		return false, err
	}
	if !ca.layout.Shape().Equal(cb.layout.Shape()) {
		return false, nil
	}
	plan, err := planFor(ca.layout.Shape(), ca.layout, cb.layout)
	if err != nil {
		return false, err
	}
	for offs := range plan.Offsets() {
		if sa[offs[0]] != sb[offs[1]] {
			return false, nil
		}
	}
	return true, nil
}

// AllClose reports whether |a-b| <= atol + rtol*|b| holds elementwise after
// broadcasting. NaN is never close to anything.
func AllClose[T Float](a, b Strided[T], rtol, atol float64) (bool, error) {
	ca, cb := a.base(), b.base()
	sa, err := ca.data()
	if err != nil {
		return false, err
	}
	sb, err := cb.data()
	if err != nil {
		return false, err
	}
	layouts, err := layout.Broadcast(ca.layout, cb.layout)
	if err != nil {
		return false, err
	}
	plan, err := planFor(layouts[0].Shape(), layouts...)
	if err != nil {
		return false, err
	}
	for offs := range plan.Offsets() {
		x, y := float64(sa[offs[0]]), float64(sb[offs[1]])
		if !(math.Abs(x-y) <= atol+rtol*math.Abs(y)) {
			return false, nil
		}
	}
	return true, nil
}

// Trace returns the sum of the main diagonal of a rank-2 array.
func Trace[T Numeric](a Strided[T]) (T, error) {
	d, err := a.base().Diagonal()
	if err != nil {
		var zero T
		return zero, err
	}
	return Sum[T](d)
}
