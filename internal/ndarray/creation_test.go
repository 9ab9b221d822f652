package ndarray

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
)

func TestCreation(t *testing.T) {
	z, err := Zeros[int16](layout.Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 0, 0, 0}, values[int16](t, z))

	o, err := Ones[complex128](layout.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, []complex128{1, 1}, values[complex128](t, o))

	f, err := Full(layout.Shape{3}, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, values[bool](t, f))
}

func TestArange(t *testing.T) {
	tests := []struct {
		start, stop, step float64
		want              []float64
	}{
		{0, 5, 1, []float64{0, 1, 2, 3, 4}},
		{1, 2, 0.25, []float64{1, 1.25, 1.5, 1.75}},
		{5, 0, -2, []float64{5, 3, 1}},
		{0, -1, 1, []float64{}},
	}
	for _, tt := range tests {
		a, err := Arange(tt.start, tt.stop, tt.step)
		require.NoError(t, err)
		assert.Equal(t, tt.want, values[float64](t, a))
	}

	u, err := Arange[uint8](5, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Size())

	_, err = Arange(0, 1, 0)
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestRandSeeded(t *testing.T) {
	a, err := Rand[float32](rand.New(rand.NewPCG(7, 7)), layout.Shape{10})
	require.NoError(t, err)
	b, err := Rand[float32](rand.New(rand.NewPCG(7, 7)), layout.Shape{10})
	require.NoError(t, err)

	eq, err := Equal[float32](a, b)
	require.NoError(t, err)
	assert.True(t, eq)

	ok, err := All(a, func(v float32) bool { return v >= 0 && v < 1 })
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatrixFunctions(t *testing.T) {
	eye, err := Eye[float64](3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, values[float64](t, eye))

	tr, err := Trace[float64](eye)
	require.NoError(t, err)
	assert.Equal(t, 3.0, tr)

	vec, err := FromSlice([]int{1, 2}, layout.Shape{2})
	require.NoError(t, err)
	d, err := Diag[int](vec)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 2}, values[int](t, d))

	back, err := Diag[int](d)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, values[int](t, back))

	cube, err := New[int](layout.Shape{2, 2, 2})
	require.NoError(t, err)
	_, err = Diag[int](cube)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Trace[int](cube)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRecycledBufferIsCleared(t *testing.T) {
	pool := mem.NewPoolAllocator(nil, 0)
	a, err := Full(layout.Shape{8}, 5, WithAllocator(pool))
	require.NoError(t, err)
	require.NoError(t, a.Release())

	// Zeros always clears a recycled buffer.
	z, err := Zeros[int](layout.Shape{8}, WithAllocator(pool))
	require.NoError(t, err)
	assert.Equal(t, make([]int, 8), values[int](t, z))
	assert.Equal(t, uint64(1), pool.Stats().Hits)
}

func TestString(t *testing.T) {
	a := arange(t, 2, 3)
	assert.Equal(t, "[[0 1 2]\n [3 4 5]]", a.String())

	tr, err := a.Transpose()
	require.NoError(t, err)
	assert.Equal(t, "[[0 3]\n [1 4]\n [2 5]]", tr.String())

	c := arange(t, 2, 2, 2)
	assert.Equal(t, "[[[0 1]\n  [2 3]]\n\n [[4 5]\n  [6 7]]]", c.String())

	e, err := New[int](layout.Shape{0})
	require.NoError(t, err)
	assert.Equal(t, "[]", e.String())
}
