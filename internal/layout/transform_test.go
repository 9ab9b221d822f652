package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReshapeContiguous(t *testing.T) {
	l, err := Contiguous(Shape{2, 3, 4}, RowMajor)
	require.NoError(t, err)

	r, err := l.Reshape(Shape{6, 4}, RowMajor)
	require.NoError(t, err)
	assert.Equal(t, Shape{6, 4}, r.Shape())
	assert.Equal(t, Strides{4, 1}, r.Strides())

	inferred, err := l.Reshape(Shape{-1, 2}, RowMajor)
	require.NoError(t, err)
	assert.Equal(t, Shape{12, 2}, inferred.Shape())

	back, err := r.Reshape(Shape{2, 3, 4}, RowMajor)
	require.NoError(t, err)
	assert.True(t, back.Equal(l))
}

func TestReshapeKeepsOffsetOfContiguousSubrange(t *testing.T) {
	l, err := Contiguous(Shape{5, 4}, RowMajor)
	require.NoError(t, err)
	rows, err := l.Slice(Range(1, 3))
	require.NoError(t, err)

	flat, err := rows.Flatten(RowMajor)
	require.NoError(t, err)
	assert.Equal(t, Shape{8}, flat.Shape())
	assert.Equal(t, 4, flat.Offset())
}

// Scenario: reshaping a view produced by a step-2 slice fails fast.
func TestReshapeNonContiguousFails(t *testing.T) {
	l, err := Contiguous(Shape{4, 6}, RowMajor)
	require.NoError(t, err)
	stepped, err := l.Slice(All(), RangeStep(0, 6, 2))
	require.NoError(t, err)

	_, err = stepped.Reshape(Shape{12}, RowMajor)
	require.ErrorIs(t, err, ErrNotReshapeable)

	// A column-major array is not contiguous under row-major.
	cm, err := Contiguous(Shape{2, 3}, ColumnMajor)
	require.NoError(t, err)
	_, err = cm.Reshape(Shape{3, 2}, RowMajor)
	require.ErrorIs(t, err, ErrNotReshapeable)
	_, err = cm.Reshape(Shape{3, 2}, ColumnMajor)
	require.NoError(t, err)
}

func TestReshapeCountMismatch(t *testing.T) {
	l, err := Contiguous(Shape{2, 3}, RowMajor)
	require.NoError(t, err)

	_, err = l.Reshape(Shape{4, 2}, RowMajor)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = l.Reshape(Shape{-1, -1}, RowMajor)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = l.Reshape(Shape{-1, 4}, RowMajor)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = l.Reshape(Shape{-2, 3}, RowMajor)
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestPermuteAndSwapAxes(t *testing.T) {
	l, err := Contiguous(Shape{2, 3, 4}, RowMajor)
	require.NoError(t, err)

	p, err := l.Permute(Permutation{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 2, 3}, p.Shape())
	assert.Equal(t, Strides{1, 12, 4}, p.Strides())

	_, err = l.Permute(Permutation{0, 1})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	s, err := l.SwapAxes(0, -1)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 3, 2}, s.Shape())

	_, err = l.SwapAxes(0, 3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	for idx := range p.shape.Indices() {
		got, err := p.OffsetOf(idx...)
		require.NoError(t, err)
		want, err := l.OffsetOf(idx[1], idx[2], idx[0])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSqueezeUnsqueeze(t *testing.T) {
	l, err := Contiguous(Shape{2, 1, 3}, RowMajor)
	require.NoError(t, err)

	sq, err := l.Squeeze(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, sq.Shape())
	assert.Equal(t, Strides{3, 1}, sq.Strides())
	assert.Equal(t, Shape{2, 1, 3}, l.Shape(), "receiver is unchanged")

	_, err = l.Squeeze(0)
	require.ErrorIs(t, err, ErrShapeMismatch)

	un, err := sq.Unsqueeze(-1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3, 1}, un.Shape())

	un, err = sq.Unsqueeze(0)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 2, 3}, un.Shape())

	_, err = sq.Unsqueeze(4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDiagonal(t *testing.T) {
	l, err := Contiguous(Shape{3, 4}, RowMajor)
	require.NoError(t, err)

	d, err := l.Diagonal()
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, d.Shape())
	assert.Equal(t, Strides{5}, d.Strides())

	cube, err := Contiguous(Shape{2, 2, 2}, RowMajor)
	require.NoError(t, err)
	_, err = cube.Diagonal()
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestGroupAxes(t *testing.T) {
	row, err := Contiguous(Shape{2, 3, 4}, RowMajor)
	require.NoError(t, err)
	col, err := Contiguous(Shape{2, 3, 4}, ColumnMajor)
	require.NoError(t, err)

	tests := []struct {
		name    string
		src     Layout
		groups  [][]int
		shape   Shape
		strides Strides
	}{
		{"row-major leading", row, [][]int{{0, 1}, {2}}, Shape{6, 4}, Strides{4, 1}},
		{"row-major trailing", row, [][]int{{0}, {1, 2}}, Shape{2, 12}, Strides{12, 1}},
		{"column-major leading", col, [][]int{{0, 1}, {2}}, Shape{6, 4}, Strides{1, 6}},
		{"groups reordered", row, [][]int{{2}, {0, 1}}, Shape{4, 6}, Strides{1, 4}},
		{"everything", row, [][]int{{0, 1, 2}}, Shape{24}, Strides{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.src.GroupAxes(tt.groups...)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, g.Shape())
			assert.Equal(t, tt.strides, g.Strides())
			assert.Equal(t, tt.src.Offset(), g.Offset())
		})
	}
}

func TestGroupAxesWalksMemoryOrder(t *testing.T) {
	l, err := Contiguous(Shape{2, 3, 4}, RowMajor)
	require.NoError(t, err)
	g, err := l.GroupAxes([]int{0, 1}, []int{2})
	require.NoError(t, err)

	for idx := range g.Shape().Indices() {
		got, err := g.OffsetOf(idx...)
		require.NoError(t, err)
		want, err := l.OffsetOf(idx[0]/3, idx[0]%3, idx[1])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestGroupAxesOfStridedSlice(t *testing.T) {
	l, err := Contiguous(Shape{4, 6}, RowMajor)
	require.NoError(t, err)
	v, err := l.Slice(All(), RangeStep(0, 6, 2))
	require.NoError(t, err)

	// Rows of three every-other elements chain into one stride-2 axis.
	g, err := v.GroupAxes([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, Shape{12}, g.Shape())
	assert.Equal(t, Strides{2}, g.Strides())

	// Half the columns of each row do not.
	h, err := l.Slice(All(), Range(0, 3))
	require.NoError(t, err)
	_, err = h.GroupAxes([]int{0, 1})
	require.ErrorIs(t, err, ErrNotReshapeable)
}

func TestGroupAxesErrors(t *testing.T) {
	l, err := Contiguous(Shape{2, 3, 4}, RowMajor)
	require.NoError(t, err)

	_, err = l.GroupAxes([]int{0, 2}, []int{1})
	require.ErrorIs(t, err, ErrNotReshapeable)

	for _, groups := range [][][]int{
		{{0, 0}, {2}},
		{{0, 1}},
		{{0, 1}, {2, 3}},
		{{0, 1, 2}, {}},
	} {
		_, err := l.GroupAxes(groups...)
		require.ErrorIs(t, err, ErrDimensionMismatch, "%v", groups)
	}
}
