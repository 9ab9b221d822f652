package ndarray

import (
	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
	"github.com/enda-lib/enda/internal/nditer"
)

// ErrDivisionByZero is returned by Div for integer element types.
var ErrDivisionByZero = errors.New("ndarray: integer division by zero")

// planFor builds a lock-step plan over layouts that share shape.
func planFor(shape layout.Shape, layouts ...layout.Layout) (*nditer.Plan, error) {
	ops := make([]nditer.Operand, len(layouts))
	for i, l := range layouts {
		ops[i] = nditer.Operand{Strides: l.Strides(), Offset: l.Offset()}
	}
	return nditer.New(shape, ops...)
}

// copyInto copies src into dst element by element. Shapes must match.
func copyInto[T Element](dst, src *core[T]) error {
	d, err := dst.writable()
	if err != nil {
		return err
	}
	s, err := src.data()
	if err != nil {
		return err
	}
	if !dst.layout.Shape().Equal(src.layout.Shape()) {
		return errors.Wrapf(ErrShapeMismatch, "copy: %v into %v", src.layout.Shape(), dst.layout.Shape())
	}
	plan, err := planFor(dst.layout.Shape(), dst.layout, src.layout)
	if err != nil {
		return err
	}
	inner := plan.InnerStrides()
	ds, ss := inner[0], inner[1]
	for offs, n := range plan.Runs() {
		do, so := offs[0], offs[1]
		if ds == 1 && ss == 1 {
			copy(d[do:do+n], s[so:so+n])
			continue
		}
		for range n {
			d[do] = s[so]
			do += ds
			so += ss
		}
	}
	return nil
}

// Apply replaces every element of dst with f(element).
func Apply[T Element](dst Strided[T], f func(T) T) error {
	c := dst.base()
	d, err := c.writable()
	if err != nil {
		return err
	}
	return applyPlan(c, d, f)
}

func applyPlan[T Element](c *core[T], d []T, f func(T) T) error {
	plan, err := planFor(c.layout.Shape(), c.layout)
	if err != nil {
		return err
	}
	return applyRuns(plan, d, f)
}

func applyRuns[T Element](plan *nditer.Plan, d []T, f func(T) T) error {
	step := plan.InnerStrides()[0]
	for offs, n := range plan.Runs() {
		off := offs[0]
		for range n {
			d[off] = f(d[off])
			off += step
		}
	}
	return nil
}

// Fill sets every element of dst to value.
func Fill[T Element](dst Strided[T], value T) error {
	return Apply(dst, func(T) T { return value })
}

// Map returns a new array holding f applied to every element of src.
func Map[T, U Element](src Strided[T], f func(T) U, opts ...Option) (*Array[U], error) {
	c := src.base()
	s, err := c.data()
	if err != nil {
		return nil, err
	}
	out, err := New[U](c.layout.Shape(), opts...)
	if err != nil {
		return nil, err
	}
	d, err := out.data()
	if err != nil {
		_ = out.Release()
		return nil, err
	}

	plan, err := planFor(c.layout.Shape(), out.layout, c.layout)
	if err != nil {
		_ = out.Release()
		return nil, err
	}
	inner := plan.InnerStrides()
	for offs, n := range plan.Runs() {
		do, so := offs[0], offs[1]
		for range n {
			d[do] = f(s[so])
			do += inner[0]
			so += inner[1]
		}
	}
	return out, nil
}

// ZipWith broadcasts a and b against each other and returns f applied pairwise.
func ZipWith[A, B, R Element](a Strided[A], b Strided[B], f func(A, B) R, opts ...Option) (*Array[R], error) {
	ca, cb := a.base(), b.base()
	sa, err := ca.data()
	if err != nil {
		return nil, err
	}
	sb, err := cb.data()
	if err != nil {
		return nil, err
	}
	shape, err := layout.BroadcastShapes(ca.layout.Shape(), cb.layout.Shape())
	if err != nil {
		return nil, err
	}
	la, err := ca.layout.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}
	lb, err := cb.layout.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}

	out, err := New[R](shape, opts...)
	if err != nil {
		return nil, err
	}
	d, err := out.data()
	if err != nil {
		_ = out.Release()
		return nil, err
	}

	plan, err := planFor(shape, out.layout, la, lb)
	if err != nil {
		_ = out.Release()
		return nil, err
	}
	inner := plan.InnerStrides()
	for offs, n := range plan.Runs() {
		do, ao, bo := offs[0], offs[1], offs[2]
		for range n {
			d[do] = f(sa[ao], sb[bo])
			do += inner[0]
			ao += inner[1]
			bo += inner[2]
		}
	}
	return out, nil
}

// Update combines src into dst in place: dst = f(dst, src), with src
// broadcast to the shape of dst. When src and dst alias overlapping storage,
// src is copied first so every element of dst sees the original src.
func Update[T Element](dst, src Strided[T], f func(d, s T) T) error {
	cd, cs := dst.base(), src.base()
	d, err := cd.writable()
	if err != nil {
		return err
	}
	if _, err := cs.data(); err != nil {
		return err
	}
	ls, err := cs.layout.BroadcastTo(cd.layout.Shape())
	if err != nil {
		return errors.Wrap(err, "update")
	}

	if cd.storage == cs.storage && !ls.Equal(cd.layout) && cd.layout.Overlaps(ls) {
		tmp, err := Copy[T](src)
		if err != nil {
			return err
		}
		defer func() { _ = tmp.Release() }()
		cs = &tmp.core
		if ls, err = cs.layout.BroadcastTo(cd.layout.Shape()); err != nil {
			return err
		}
	}
	s, err := cs.data()
	if err != nil {
		return err
	}

	plan, err := planFor(cd.layout.Shape(), cd.layout, ls)
	if err != nil {
		return err
	}
	inner := plan.InnerStrides()
	for offs, n := range plan.Runs() {
		do, so := offs[0], offs[1]
		for range n {
			d[do] = f(d[do], s[so])
			do += inner[0]
			so += inner[1]
		}
	}
	return nil
}

// Assign copies src into dst, broadcasting src to the shape of dst.
// Overlapping source and destination are handled as if src were copied first.
func Assign[T Element](dst, src Strided[T]) error {
	return Update(dst, src, func(_, s T) T { return s })
}

// Add returns a + b with broadcasting.
func Add[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	return ZipWith(a, b, func(x, y T) T { return x + y }, opts...)
}

// Sub returns a - b with broadcasting.
func Sub[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	return ZipWith(a, b, func(x, y T) T { return x - y }, opts...)
}

// Mul returns the elementwise product with broadcasting.
func Mul[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	return ZipWith(a, b, func(x, y T) T { return x * y }, opts...)
}

// Div returns the elementwise quotient with broadcasting. For integer element
// types a zero divisor is reported as ErrDivisionByZero.
func Div[T Numeric](a, b Strided[T], opts ...Option) (*Array[T], error) {
	if isInteger(mem.DataTypeOf[T]()) {
		var zero T
		hasZero, err := Any(b, func(v T) bool { return v == zero })
		if err != nil {
			return nil, err
		}
		if hasZero {
			return nil, ErrDivisionByZero
		}
	}
	return ZipWith(a, b, func(x, y T) T { return x / y }, opts...)
}

// Scale returns a * k.
func Scale[T Numeric](a Strided[T], k T, opts ...Option) (*Array[T], error) {
	return Map(a, func(x T) T { return x * k }, opts...)
}

func isInteger(dt mem.DataType) bool {
	switch dt {
	case mem.Int8, mem.Int16, mem.Int32, mem.Int64, mem.Int,
		mem.Uint8, mem.Uint16, mem.Uint32, mem.Uint64, mem.Uint:
		return true
	default:
		return false
	}
}
