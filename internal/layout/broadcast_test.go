package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario: [3,1] with [1,4] broadcasts to [3,4] with stride 0 on expanded axes.
func TestBroadcastColumnWithRow(t *testing.T) {
	a, err := Contiguous(Shape{3, 1}, RowMajor)
	require.NoError(t, err)
	b, err := Contiguous(Shape{1, 4}, RowMajor)
	require.NoError(t, err)

	out, err := Broadcast(a, b)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, Shape{3, 4}, out[0].Shape())
	assert.Equal(t, Strides{a.Strides()[0], 0}, out[0].Strides())
	assert.Equal(t, Shape{3, 4}, out[1].Shape())
	assert.Equal(t, Strides{0, b.Strides()[1]}, out[1].Strides())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name   string
		shapes []Shape
		want   Shape
		err    bool
	}{
		{"same", []Shape{{3, 5}, {3, 5}}, Shape{3, 5}, false},
		{"column", []Shape{{3, 1}, {3, 5}}, Shape{3, 5}, false},
		{"pad left", []Shape{{5}, {2, 1, 5}}, Shape{2, 1, 5}, false},
		{"scalar", []Shape{{}, {4, 2}}, Shape{4, 2}, false},
		{"three way", []Shape{{4, 1, 1}, {1, 3, 1}, {2}}, Shape{4, 3, 2}, false},
		{"zero with one", []Shape{{0}, {1}}, Shape{0}, false},
		{"zero with three", []Shape{{0}, {3}}, nil, true},
		{"incompatible", []Shape{{3, 4}, {3, 5}}, nil, true},
		{"none", nil, Shape{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BroadcastShapes(tt.shapes...)
			if tt.err {
				require.ErrorIs(t, err, ErrShapeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBroadcastCommutativeAndAssociative(t *testing.T) {
	a, b, c := Shape{4, 1, 3}, Shape{2, 1}, Shape{1, 1, 1, 3}

	ab, err := BroadcastShapes(a, b)
	require.NoError(t, err)
	ba, err := BroadcastShapes(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	left, err := BroadcastShapes(ab, c)
	require.NoError(t, err)
	bc, err := BroadcastShapes(b, c)
	require.NoError(t, err)
	right, err := BroadcastShapes(a, bc)
	require.NoError(t, err)
	all, err := BroadcastShapes(a, b, c)
	require.NoError(t, err)

	assert.Equal(t, left, right)
	assert.Equal(t, left, all)
	assert.Equal(t, Shape{1, 4, 2, 3}, all)
}

func TestBroadcastToErrors(t *testing.T) {
	l, err := Contiguous(Shape{2, 3}, RowMajor)
	require.NoError(t, err)

	_, err = l.BroadcastTo(Shape{3})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = l.BroadcastTo(Shape{4, 3})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = BroadcastStrides(Shape{2}, Strides{1, 1}, Shape{2})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	bc, err := l.BroadcastTo(Shape{5, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Strides{0, 3, 1}, bc.Strides())
	assert.Equal(t, l.Offset(), bc.Offset())
}
