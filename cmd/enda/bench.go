package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/config"
	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/ndarray"
	"github.com/enda-lib/enda/internal/parallel"
)

type benchCase struct {
	name  string
	elems int
	fn    func() error
}

func runBench(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(out)
	n := fs.Int("n", 1024, "extent of each axis of the square test matrix")
	reps := fs.Int("reps", 20, "repetitions per case")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 || *reps <= 0 {
		return errors.Errorf("-n and -reps must be positive, got %d and %d", *n, *reps)
	}

	alloc, err := cfg.NewAllocator()
	if err != nil {
		return err
	}
	opts, err := cfg.ArrayOptions(alloc)
	if err != nil {
		return err
	}
	a, err := ndarray.Full(layout.Shape{*n, *n}, 1.0, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = a.Release() }()
	b, err := ndarray.Full(layout.Shape{*n, *n}, 2.0, ndarray.WithOrder(layout.ColumnMajor))
	if err != nil {
		return err
	}
	defer func() { _ = b.Release() }()

	tr, err := a.Transpose()
	if err != nil {
		return err
	}
	half, err := a.Slice(layout.All(), layout.RangeStep(0, *n, 2))
	if err != nil {
		return err
	}
	raw, err := a.Raw()
	if err != nil {
		return err
	}

	size := a.Size()
	ctx := context.Background()
	par := cfg.ParallelConfig()
	par.Enabled = true
	incr := func(x float64) float64 { return x + 1 }

	cases := []benchCase{
		{"sum/contiguous", size, func() error { _, err := ndarray.Sum[float64](a); return err }},
		{"sum/transposed", size, func() error { _, err := ndarray.Sum[float64](tr); return err }},
		{"sum/step-2", half.Size(), func() error { _, err := ndarray.Sum[float64](half); return err }},
		{"sum/parallel", size, func() error { _, err := ndarray.SumParallel[float64](ctx, a, par); return err }},
		{"apply/contiguous", size, func() error { return ndarray.Apply[float64](a, incr) }},
		{"apply/step-2", half.Size(), func() error { return ndarray.Apply[float64](half, incr) }},
		{"apply/parallel", size, func() error { return ndarray.ApplyParallel[float64](ctx, a, incr, par) }},
		{"assign/mixed-order", size, func() error { return ndarray.Assign[float64](a, b) }},
		{"loop/for", size, func() error {
			// Flat index loop over the raw buffer as a baseline.
			parallel.For(len(raw.Data), func(i int) { raw.Data[i] += 1 }, parallel.Sequential())
			return nil
		}},
		{"loop/parallel-for", size, func() error {
			parallel.For(len(raw.Data), func(i int) { raw.Data[i] += 1 }, par)
			return nil
		}},
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "case\tper op\tns/elem\t\n")
	for _, c := range cases {
		start := time.Now()
		for range *reps {
			if err := c.fn(); err != nil {
				return errors.Wrap(err, c.name)
			}
		}
		per := time.Since(start) / time.Duration(*reps)
		fmt.Fprintf(w, "%s\t%v\t%.3f\t\n", c.name, per, float64(per.Nanoseconds())/float64(max(c.elems, 1)))
	}
	return w.Flush()
}
