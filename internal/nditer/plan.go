// Package nditer traverses one or more strided geometries in lock-step.
//
// A Plan is built once from a shared shape and one stride set per operand. It
// reorders axes so the innermost loop walks the smallest strides, drops
// extent-1 axes and merges axes that are contiguous for every operand. The
// plan is immutable and can be iterated any number of times.
package nditer

import (
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/enda-lib/enda/internal/layout"
)

// Operand is the geometry of one traversed array relative to the plan shape.
type Operand struct {
	Strides layout.Strides
	Offset  int
}

// Plan is a precomputed traversal over a shape.
type Plan struct {
	shape   []int   // outermost first
	strides [][]int // [operand][axis]
	base    []int   // per-operand starting offset
	size    int
}

// New builds a plan. Every operand must have one stride per axis of shape.
// The first operand has priority when operands disagree on axis order.
func New(shape layout.Shape, ops ...Operand) (*Plan, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, errors.Wrap(layout.ErrDimensionMismatch, "nditer: no operands")
	}
	rank := shape.Rank()
	for i, op := range ops {
		if len(op.Strides) != rank {
			return nil, errors.Wrapf(layout.ErrDimensionMismatch,
				"nditer: operand %d has %d strides for rank %d", i, len(op.Strides), rank)
		}
	}

	p := &Plan{
		strides: make([][]int, len(ops)),
		base:    make([]int, len(ops)),
		size:    shape.NumElements(),
	}
	for i, op := range ops {
		p.base[i] = op.Offset
	}
	if p.size == 0 {
		return p, nil
	}

	// Keep axes that actually move.
	axes := make([]int, 0, rank)
	for a, n := range shape {
		if n != 1 {
			axes = append(axes, a)
		}
	}

	slices.SortStableFunc(axes, func(a, b int) int {
		for _, op := range ops {
			sa, sb := abs(op.Strides[a]), abs(op.Strides[b])
			if sa != sb {
				// Larger strides go outward.
				return sb - sa
			}
		}
		return 0
	})

	for _, a := range axes {
		p.shape = append(p.shape, shape[a])
		for i, op := range ops {
			p.strides[i] = append(p.strides[i], op.Strides[a])
		}
	}
	p.coalesce()
	return p, nil
}

// coalesce merges an axis into its inner neighbour when every operand steps
// through both as one run.
func (p *Plan) coalesce() {
	for ax := len(p.shape) - 2; ax >= 0; ax-- {
		inner := ax + 1
		ok := true
		for _, st := range p.strides {
			if st[ax] != st[inner]*p.shape[inner] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		p.shape[ax] *= p.shape[inner]
		p.shape = slices.Delete(p.shape, inner, inner+1)
		for i, st := range p.strides {
			st[ax] = st[inner]
			p.strides[i] = slices.Delete(st, inner, inner+1)
		}
	}
}

// Len returns the number of positions visited.
func (p *Plan) Len() int {
	return p.size
}

// Operands returns the number of operands.
func (p *Plan) Operands() int {
	return len(p.base)
}

// Shape returns the traversal extents after reordering and coalescing.
func (p *Plan) Shape() []int {
	return slices.Clone(p.shape)
}

// InnerStrides returns each operand's stride along the innermost loop.
// All zeros when the plan visits a single position.
func (p *Plan) InnerStrides() []int {
	out := make([]int, len(p.strides))
	if len(p.shape) == 0 {
		return out
	}
	last := len(p.shape) - 1
	for i, st := range p.strides {
		out[i] = st[last]
	}
	return out
}

// Offsets yields the per-operand element offset of every position. The yielded
// slice is reused between iterations; copy it to keep it.
func (p *Plan) Offsets() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		cur := make([]int, len(p.base))
		inner := p.InnerStrides()
		for start, n := range p.Runs() {
			copy(cur, start)
			for range n {
				if !yield(cur) {
					return
				}
				for i, s := range inner {
					cur[i] += s
				}
			}
		}
	}
}

// Runs yields the starting offsets and length of each innermost run. Kernels
// walk a run with InnerStrides. The yielded slice is reused.
func (p *Plan) Runs() iter.Seq2[[]int, int] {
	return func(yield func([]int, int) bool) {
		if p.size == 0 {
			return
		}
		start := slices.Clone(p.base)
		rank := len(p.shape)
		if rank == 0 {
			yield(start, 1)
			return
		}

		outer := rank - 1
		counter := make([]int, outer)
		innerLen := p.shape[outer]
		for {
			if !yield(start, innerLen) {
				return
			}
			// Odometer over the outer axes.
			ax := outer - 1
			for ; ax >= 0; ax-- {
				counter[ax]++
				for i, st := range p.strides {
					start[i] += st[ax]
				}
				if counter[ax] < p.shape[ax] {
					break
				}
				for i, st := range p.strides {
					start[i] -= st[ax] * p.shape[ax]
				}
				counter[ax] = 0
			}
			if ax < 0 {
				return
			}
		}
	}
}

// Split partitions the plan along its outermost axis into at most n plans
// that together visit every position exactly once.
func (p *Plan) Split(n int) []*Plan {
	if n <= 1 || p.size == 0 || len(p.shape) == 0 || p.shape[0] == 1 {
		return []*Plan{p}
	}
	extent := p.shape[0]
	n = min(n, extent)
	chunk := (extent + n - 1) / n

	parts := make([]*Plan, 0, n)
	for lo := 0; lo < extent; lo += chunk {
		hi := min(lo+chunk, extent)
		part := &Plan{
			shape:   slices.Clone(p.shape),
			strides: p.strides,
			base:    make([]int, len(p.base)),
			size:    p.size / extent * (hi - lo),
		}
		part.shape[0] = hi - lo
		for i, b := range p.base {
			part.base[i] = b + lo*p.strides[i][0]
		}
		parts = append(parts, part)
	}
	return parts
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
