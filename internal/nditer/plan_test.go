package nditer

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enda-lib/enda/internal/layout"
)

func collect(p *Plan) [][]int {
	var out [][]int
	for offs := range p.Offsets() {
		out = append(out, slices.Clone(offs))
	}
	return out
}

func TestContiguousCoalescesToOneRun(t *testing.T) {
	p, err := New(layout.Shape{2, 3, 4}, Operand{Strides: layout.Strides{12, 4, 1}})
	require.NoError(t, err)

	assert.Equal(t, []int{24}, p.Shape())
	assert.Equal(t, 24, p.Len())

	var got []int
	for offs := range p.Offsets() {
		got = append(got, offs[0])
	}
	want := make([]int, 24)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestInnermostIsSmallestStride(t *testing.T) {
	// Column-major [2,3]: strides [1,2]. Memory order traversal.
	p, err := New(layout.Shape{2, 3}, Operand{Strides: layout.Strides{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{6}, p.Shape())

	var got []int
	for offs := range p.Offsets() {
		got = append(got, offs[0])
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, got)
}

func TestLockStepVisitsEveryPositionOnce(t *testing.T) {
	shape := layout.Shape{3, 4}
	row := Operand{Strides: layout.Strides{4, 1}}
	col := Operand{Strides: layout.Strides{1, 3}, Offset: 100}

	p, err := New(shape, row, col)
	require.NoError(t, err)

	pairs := collect(p)
	require.Len(t, pairs, 12)

	seen := map[[2]int]bool{}
	for _, pr := range pairs {
		r := pr[0]
		i, j := r/4, r%4
		assert.Equal(t, 100+i+3*j, pr[1], "operands stay in lock-step")
		seen[[2]int{i, j}] = true
	}
	assert.Len(t, seen, 12)
}

func TestBroadcastOperandAndNegativeStride(t *testing.T) {
	// Reversed vector broadcast down rows.
	p, err := New(layout.Shape{2, 3},
		Operand{Strides: layout.Strides{3, 1}},
		Operand{Strides: layout.Strides{0, -1}, Offset: 2},
	)
	require.NoError(t, err)

	pairs := collect(p)
	assert.Equal(t, [][]int{{0, 2}, {1, 1}, {2, 0}, {3, 2}, {4, 1}, {5, 0}}, pairs)
}

func TestEarlyTerminationAndRestart(t *testing.T) {
	p, err := New(layout.Shape{4, 5}, Operand{Strides: layout.Strides{10, 2}})
	require.NoError(t, err)

	count := 0
	for range p.Offsets() {
		count++
		if count == 7 {
			break
		}
	}
	assert.Equal(t, 7, count)

	assert.Len(t, collect(p), 20, "a plan can be traversed again")
}

func TestScalarAndEmpty(t *testing.T) {
	p, err := New(layout.Shape{}, Operand{Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{3}}, collect(p))

	p, err = New(layout.Shape{1, 1}, Operand{Strides: layout.Strides{7, 9}, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{2}}, collect(p))

	p, err = New(layout.Shape{3, 0}, Operand{Strides: layout.Strides{0, 1}})
	require.NoError(t, err)
	assert.Empty(t, collect(p))
	assert.Equal(t, 0, p.Len())
}

func TestNewErrors(t *testing.T) {
	_, err := New(layout.Shape{2, 3}, Operand{Strides: layout.Strides{1}})
	require.ErrorIs(t, err, layout.ErrDimensionMismatch)

	_, err = New(layout.Shape{2})
	require.ErrorIs(t, err, layout.ErrDimensionMismatch)

	_, err = New(layout.Shape{-1}, Operand{Strides: layout.Strides{1}})
	require.ErrorIs(t, err, layout.ErrInvalidShape)
}

func TestRuns(t *testing.T) {
	// Row stride leaves a gap, so the axes stay separate.
	p, err := New(layout.Shape{3, 2}, Operand{Strides: layout.Strides{5, 2}, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, p.InnerStrides())

	var starts []int
	for start, n := range p.Runs() {
		assert.Equal(t, 2, n)
		starts = append(starts, start[0])
	}
	assert.Equal(t, []int{1, 6, 11}, starts)
}

func TestSplitCoversPlan(t *testing.T) {
	shape := layout.Shape{7, 3}
	op := Operand{Strides: layout.Strides{7, 2}, Offset: 5}
	p, err := New(shape, op)
	require.NoError(t, err)

	whole := collect(p)
	for _, n := range []int{1, 2, 3, 7, 20} {
		parts := p.Split(n)
		assert.LessOrEqual(t, len(parts), max(n, 1))

		var joined [][]int
		total := 0
		for _, part := range parts {
			total += part.Len()
			joined = append(joined, collect(part)...)
		}
		assert.Equal(t, p.Len(), total, "n=%d", n)
		assert.Equal(t, whole, joined, "n=%d", n)
	}
}
