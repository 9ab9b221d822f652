package ndarray

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/parallel"
)

func TestReductions(t *testing.T) {
	a := arange(t, 3, 4)
	v, err := a.Slice(layout.All(), layout.RangeStep(0, 4, 3))
	require.NoError(t, err)

	sum, err := Sum[float64](a)
	require.NoError(t, err)
	assert.Equal(t, 66.0, sum)

	sum, err = Sum[float64](v)
	require.NoError(t, err)
	assert.Equal(t, 0.0+3+4+7+8+11, sum)

	prod, err := Product[float64](v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, prod)

	lo, err := Min[float64](v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	hi, err := Max[float64](v)
	require.NoError(t, err)
	assert.Equal(t, 11.0, hi)

	count, err := Fold(a, 0, func(n int, x float64) int {
		if x > 5 {
			n++
		}
		return n
	})
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestEmptyReductions(t *testing.T) {
	e, err := New[int](layout.Shape{0, 3})
	require.NoError(t, err)
	defer func() { _ = e.Release() }()

	sum, err := Sum[int](e)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
	prod, err := Product[int](e)
	require.NoError(t, err)
	assert.Equal(t, 1, prod)

	_, err = Max[int](e)
	require.ErrorIs(t, err, ErrShapeMismatch)

	all, err := All(e, func(int) bool { return false })
	require.NoError(t, err)
	assert.True(t, all)
}

func TestAnyAllShortCircuit(t *testing.T) {
	a := arange(t, 100)

	calls := 0
	found, err := Any(a, func(x float64) bool { calls++; return x == 3 })
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, calls)

	calls = 0
	all, err := All(a, func(x float64) bool { calls++; return x < 10 })
	require.NoError(t, err)
	assert.False(t, all)
	assert.Equal(t, 11, calls)

	none, err := Any(a, func(x float64) bool { return x < 0 })
	require.NoError(t, err)
	assert.False(t, none)
}

func TestNormEqualAllClose(t *testing.T) {
	a, err := FromSlice([]float64{3, 4}, layout.Shape{2})
	require.NoError(t, err)
	n, err := Norm[float64](a)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, n, 1e-12)

	b, err := FromSlice([]float64{3, 4 + 1e-10}, layout.Shape{2})
	require.NoError(t, err)

	eq, err := Equal[float64](a, b)
	require.NoError(t, err)
	assert.False(t, eq)

	near, err := AllClose[float64](a, b, 1e-9, 0)
	require.NoError(t, err)
	assert.True(t, near)

	nan, err := FromSlice([]float64{math.NaN(), 4}, layout.Shape{2})
	require.NoError(t, err)
	near, err = AllClose[float64](nan, nan, 1, 1)
	require.NoError(t, err)
	assert.False(t, near)

	other := arange(t, 3)
	eq, err = Equal[float64](a, other)
	require.NoError(t, err)
	assert.False(t, eq, "different shapes are unequal")
	_, err = AllClose[float64](a, other, 0, 0)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSumParallelMatchesSum(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	a, err := Rand[float64](rng, layout.Shape{300, 70})
	require.NoError(t, err)
	defer func() { _ = a.Release() }()
	v, err := a.Slice(layout.RangeStep(0, 300, 3), layout.From(5))
	require.NoError(t, err)

	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16}
	for _, x := range []Strided[float64]{a, v} {
		seq, err := Sum(x)
		require.NoError(t, err)
		par, err := SumParallel(context.Background(), x, cfg)
		require.NoError(t, err)
		assert.Equal(t, seq, par, "partials are combined in the same order")
	}
}

func TestApplyParallelMatchesApply(t *testing.T) {
	seq := arange(t, 64, 65)
	par := arange(t, 64, 65)
	f := func(x float64) float64 { return x*x + 1 }

	require.NoError(t, Apply[float64](seq, f))
	cfg := parallel.Config{Enabled: true, NumWorkers: 8, MinChunkSize: 8}
	require.NoError(t, ApplyParallel[float64](context.Background(), par, f, cfg))

	eq, err := Equal[float64](seq, par)
	require.NoError(t, err)
	assert.True(t, eq)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ApplyParallel[float64](ctx, par, f, parallel.Sequential())
	require.ErrorIs(t, err, context.Canceled)
}
