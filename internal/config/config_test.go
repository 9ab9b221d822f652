package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
	"github.com/enda-lib/enda/internal/ndarray"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	order, err := cfg.LayoutOrder()
	require.NoError(t, err)
	assert.True(t, order.Equal(layout.RowMajor))
	assert.Positive(t, cfg.ParallelConfig().NumWorkers)
}

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
order: column-major
zero_init: false
allocator:
  kind: pool
  pool_size: 8
  stats: true
parallel:
  enabled: true
  workers: 3
  min_chunk_size: 128
blas:
  library: /opt/openblas/lib/libopenblas.so
  min_version: 0.3.20
`))
	require.NoError(t, err)

	assert.Equal(t, "column-major", cfg.Order)
	assert.False(t, cfg.ZeroInit)
	assert.Equal(t, AllocatorConfig{Kind: AllocPool, PoolSize: 8, Stats: true}, cfg.Allocator)
	assert.Equal(t, 3, cfg.Parallel.NumWorkers)
	assert.Equal(t, 128, cfg.Parallel.MinChunkSize)
	assert.True(t, cfg.Parallel.Enabled)
	assert.Equal(t, "0.3.20", cfg.BLAS.MinVersion)

	alloc, err := cfg.NewAllocator()
	require.NoError(t, err)
	assert.Equal(t, "stats(pool(heap))", alloc.Name())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("ordr: row-major\n"))
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"order", func(c *Config) { c.Order = "diagonal" }},
		{"allocator", func(c *Config) { c.Allocator.Kind = "arena" }},
		{"pool size", func(c *Config) { c.Allocator.PoolSize = -1 }},
		{"alignment", func(c *Config) { c.Allocator.Alignment = 24 }},
		{"workers", func(c *Config) { c.Parallel.NumWorkers = -2 }},
		{"chunk", func(c *Config) { c.Parallel.MinChunkSize = -1 }},
		{"blas version", func(c *Config) { c.BLAS.MinVersion = "latest" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"ENDA_ORDER":     "2,0,1",
		"ENDA_WORKERS":   " 6 ",
		"ENDA_PARALLEL":  "false",
		"ENDA_MIN_CHUNK": "32",
		"ENDA_ALLOCATOR": "Aligned",
		"ENDA_ZERO_INIT": "0",
		"ENDA_BLAS_LIB":  "libblas.so.3",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "2,0,1", cfg.Order)
	assert.Equal(t, 6, cfg.Parallel.NumWorkers)
	assert.False(t, cfg.Parallel.Enabled)
	assert.Equal(t, 32, cfg.Parallel.MinChunkSize)
	assert.Equal(t, AllocAligned, cfg.Allocator.Kind)
	assert.False(t, cfg.ZeroInit)
	assert.Equal(t, "libblas.so.3", cfg.BLAS.Library)

	err = Default().ApplyEnv(envMap(map[string]string{"ENDA_WORKERS": "many"}))
	require.ErrorIs(t, err, ErrInvalidConfig)
	err = Default().ApplyEnv(envMap(map[string]string{"ENDA_PARALLEL": "sometimes"}))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enda.yaml")
	require.NoError(t, os.WriteFile(path, []byte("order: F\nallocator:\n  kind: heap\n"), 0o600))
	t.Setenv("ENDA_ALLOCATOR", "pool")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "F", cfg.Order)
	assert.Equal(t, AllocPool, cfg.Allocator.Kind)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Allocator.Kind = AllocMmap
	raw, err := cfg.Marshal()
	require.NoError(t, err)

	back, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestArrayOptions(t *testing.T) {
	cfg := Default()
	cfg.Order = "column-major"
	cfg.ZeroInit = false
	cfg.Allocator.Stats = true

	alloc, err := cfg.NewAllocator()
	require.NoError(t, err)
	opts, err := cfg.ArrayOptions(alloc)
	require.NoError(t, err)

	a, err := ndarray.New[float64](layout.Shape{2, 3}, opts...)
	require.NoError(t, err)
	assert.Equal(t, layout.Strides{1, 2}, a.Strides())

	stats, ok := alloc.(*mem.StatsAllocator)
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.Stats().Allocations)
	require.NoError(t, a.Release())
	assert.Equal(t, int64(0), stats.Stats().Live())
}
