package ndarray

import (
	"context"

	"github.com/enda-lib/enda/internal/parallel"
)

// ApplyParallel is Apply with the traversal split across workers. Each
// element is visited exactly once, so the result equals Apply.
func ApplyParallel[T Element](ctx context.Context, dst Strided[T], f func(T) T, cfg parallel.Config) error {
	c := dst.base()
	d, err := c.writable()
	if err != nil {
		return err
	}
	plan, err := planFor(c.layout.Shape(), c.layout)
	if err != nil {
		return err
	}

	parts := plan.Split(cfg.Workers(plan.Len()))
	tasks := make([]func(context.Context) error, len(parts))
	for i, part := range parts {
		tasks[i] = func(context.Context) error {
			return applyRuns(part, d, f)
		}
	}
	return parallel.Run(ctx, tasks, cfg)
}

// SumParallel is Sum with the partial sums computed concurrently. The partials
// are combined in the same order as Sum, so floating-point results are identical.
func SumParallel[T Numeric](ctx context.Context, a Strided[T], cfg parallel.Config) (T, error) {
	var total T
	parts, data, err := sumParts(a)
	if err != nil {
		return total, err
	}
	if cfg.Workers(a.Layout().NumElements()) == 1 {
		cfg = parallel.Sequential()
	}

	partials := make([]T, len(parts))
	tasks := make([]func(context.Context) error, len(parts))
	for i, part := range parts {
		tasks[i] = func(context.Context) error {
			partials[i] = sumPlan(part, data)
			return nil
		}
	}
	if err := parallel.Run(ctx, tasks, cfg); err != nil {
		return total, err
	}
	for _, p := range partials {
		total += p
	}
	return total, nil
}
