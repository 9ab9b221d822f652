package main

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/config"
	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/ndarray"
)

func runDemo(_ *config.Config, _ []string, out io.Writer) error {
	steps := []struct {
		title string
		run   func(io.Writer) error
	}{
		{"row-major offsets", demoOffsets},
		{"broadcasting a column with a row", demoBroadcast},
		{"slicing a[1:4, 2]", demoSlice},
		{"reshaping a strided view", demoReshape},
		{"shared storage", demoShared},
	}
	for i, s := range steps {
		fmt.Fprintf(out, "%d. %s\n", i+1, s.title)
		if err := s.run(out); err != nil {
			return errors.Wrap(err, s.title)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func demoOffsets(out io.Writer) error {
	shape := layout.Shape{2, 3}
	strides, err := layout.StridesFor(shape, layout.RowMajor)
	if err != nil {
		return err
	}
	off, err := layout.OffsetOf(shape, strides, 0, []int{1, 2})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   shape %v strides %v, [1 2] -> offset %d\n", shape, []int(strides), off)
	return nil
}

func demoBroadcast(out io.Writer) error {
	col, err := ndarray.FromSlice([]int{1, 2, 3}, layout.Shape{3, 1})
	if err != nil {
		return err
	}
	row, err := ndarray.FromSlice([]int{10, 20, 30, 40}, layout.Shape{1, 4})
	if err != nil {
		return err
	}
	views, err := ndarray.Broadcast[int](col, row)
	if err != nil {
		return err
	}
	for i, v := range views {
		fmt.Fprintf(out, "   operand %d: shape %v strides %v\n", i, v.Shape(), []int(v.Strides()))
	}
	sum, err := ndarray.Add[int](col, row)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   sum:\n%s\n", indent(sum.String()))
	return nil
}

func demoSlice(out io.Writer) error {
	a, err := ndarray.Arange[int](0, 25, 1)
	if err != nil {
		return err
	}
	m, err := a.Reshape(5, 5)
	if err != nil {
		return err
	}
	v, err := m.Slice(layout.Range(1, 4), layout.At(2))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   shape %v offset %d values %v\n", v.Shape(), v.Offset(), v)
	return nil
}

func demoReshape(out io.Writer) error {
	a, err := ndarray.Arange[float64](0, 10, 1)
	if err != nil {
		return err
	}
	v, err := a.Slice(layout.RangeStep(0, 10, 2))
	if err != nil {
		return err
	}
	_, err = v.Reshape(5, 1)
	if !errors.Is(err, ndarray.ErrNotReshapeable) {
		return errors.Errorf("expected a reshape failure, got %v", err)
	}
	fmt.Fprintf(out, "   strides %v: %v\n", []int(v.Strides()), err)
	c, err := v.Copy()
	if err != nil {
		return err
	}
	r, err := c.Reshape(5, 1)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   after copy: shape %v strides %v\n", r.Shape(), []int(r.Strides()))
	return nil
}

func demoShared(out io.Writer) error {
	var frees atomic.Int32
	a, err := ndarray.WrapSlice([]float32{1, 2, 3, 4}, layout.Shape{4}, layout.RowMajor, func() { frees.Add(1) })
	if err != nil {
		return err
	}
	b, err := a.Share()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   owners: %d\n", a.Storage().RefCount())
	if err := a.Release(); err != nil {
		return err
	}
	fmt.Fprintf(out, "   after first release: %v, freed %d times\n", b, frees.Load())
	if err := b.Release(); err != nil {
		return err
	}
	fmt.Fprintf(out, "   after second release: freed %d times\n", frees.Load())
	return nil
}

func indent(s string) string {
	return "   " + strings.ReplaceAll(s, "\n", "\n   ")
}
