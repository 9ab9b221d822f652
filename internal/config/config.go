// Package config loads runtime settings for arrays, allocators, parallel
// traversal and the BLAS binding from YAML and the environment.
package config

import (
	"bytes"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
	"github.com/enda-lib/enda/internal/ndarray"
	"github.com/enda-lib/enda/internal/parallel"
)

// ErrInvalidConfig is returned when a setting is out of range or malformed.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Allocator kinds.
const (
	AllocHeap    = "heap"
	AllocPool    = "pool"
	AllocAligned = "aligned"
	AllocMmap    = "mmap"
)

// Config is the complete runtime configuration.
type Config struct {
	// Order is the default memory order of new arrays: row-major, column-major,
	// C, F or a comma-separated axis permutation.
	Order string `yaml:"order"`
	// ZeroInit clears new arrays. When false, pooled buffers are reused as found.
	ZeroInit  bool            `yaml:"zero_init"`
	Allocator AllocatorConfig `yaml:"allocator"`
	Parallel  parallel.Config `yaml:"parallel"`
	BLAS      BLASConfig      `yaml:"blas"`
}

// AllocatorConfig selects and tunes the storage allocator.
type AllocatorConfig struct {
	Kind      string `yaml:"kind"`
	PoolSize  int    `yaml:"pool_size"` // idle buffers per size class
	Alignment int    `yaml:"alignment"` // bytes, 0 = cache line
	Stats     bool   `yaml:"stats"`     // wrap with usage counters
}

// BLASConfig locates the CBLAS library.
type BLASConfig struct {
	// Library is a path or soname. Empty searches the usual names.
	Library string `yaml:"library"`
	// MinVersion is the oldest accepted OpenBLAS version.
	MinVersion string `yaml:"min_version"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Order:    "row-major",
		ZeroInit: true,
		Allocator: AllocatorConfig{
			Kind:     AllocHeap,
			PoolSize: mem.DefaultMaxPooled,
		},
		Parallel: parallel.DefaultConfig(),
		BLAS: BLASConfig{
			MinVersion: "0.3.0",
		},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "config: read")
		}
		if err := cfg.decode(raw); err != nil {
			return nil, errors.Wrapf(err, "config: parse %s", path)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(raw); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(c)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyEnv overrides settings from ENDA_* variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ENDA_ORDER"); ok {
		c.Order = v
	}
	if v, ok := lookup("ENDA_ALLOCATOR"); ok {
		c.Allocator.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("ENDA_BLAS_LIB"); ok {
		c.BLAS.Library = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"ENDA_WORKERS", &c.Parallel.NumWorkers},
		{"ENDA_MIN_CHUNK", &c.Parallel.MinChunkSize},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s=%q: %v", e.name, v, err)
		}
		*e.dst = n
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"ENDA_PARALLEL", &c.Parallel.Enabled},
		{"ENDA_ZERO_INIT", &c.ZeroInit},
	}
	for _, e := range bools {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s=%q: %v", e.name, v, err)
		}
		*e.dst = b
	}
	return nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if _, err := layout.ParseOrder(c.Order); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "order %q: %v", c.Order, err)
	}
	switch c.Allocator.Kind {
	case AllocHeap, AllocPool, AllocAligned, AllocMmap:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown allocator %q", c.Allocator.Kind)
	}
	if c.Allocator.PoolSize < 0 {
		return errors.Wrapf(ErrInvalidConfig, "pool_size %d is negative", c.Allocator.PoolSize)
	}
	if a := c.Allocator.Alignment; a < 0 || a&(a-1) != 0 {
		return errors.Wrapf(ErrInvalidConfig, "alignment %d is not a power of two", a)
	}
	if c.Parallel.NumWorkers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers %d is negative", c.Parallel.NumWorkers)
	}
	if c.Parallel.MinChunkSize < 0 {
		return errors.Wrapf(ErrInvalidConfig, "min_chunk_size %d is negative", c.Parallel.MinChunkSize)
	}
	if c.BLAS.MinVersion != "" {
		if _, err := semver.NewVersion(c.BLAS.MinVersion); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "blas min_version %q: %v", c.BLAS.MinVersion, err)
		}
	}
	return nil
}

// LayoutOrder returns the parsed default memory order.
func (c *Config) LayoutOrder() (layout.Order, error) {
	return layout.ParseOrder(c.Order)
}

// ParallelConfig returns the parallel settings with zero workers resolved to
// the CPU count.
func (c *Config) ParallelConfig() parallel.Config {
	p := c.Parallel
	if p.NumWorkers == 0 {
		p.NumWorkers = runtime.NumCPU()
	}
	return p
}

// NewAllocator builds the configured allocator. Each call returns a fresh
// instance, so pools and counters are not shared between calls.
func (c *Config) NewAllocator() (mem.Allocator, error) {
	var (
		alloc mem.Allocator
		err   error
	)
	switch c.Allocator.Kind {
	case AllocHeap:
		alloc = mem.Heap
	case AllocPool:
		alloc = mem.NewPoolAllocator(mem.Heap, c.Allocator.PoolSize)
	case AllocAligned:
		alloc, err = mem.NewAlignedAllocator(c.Allocator.Alignment)
	case AllocMmap:
		alloc, err = mem.NewMmapAllocator()
	default:
		err = errors.Wrapf(ErrInvalidConfig, "unknown allocator %q", c.Allocator.Kind)
	}
	if err != nil {
		return nil, err
	}
	if c.Allocator.Stats {
		alloc = mem.NewStatsAllocator(alloc)
	}
	return alloc, nil
}

// ArrayOptions translates the configuration into options for new arrays
// backed by alloc.
func (c *Config) ArrayOptions(alloc mem.Allocator) ([]ndarray.Option, error) {
	order, err := c.LayoutOrder()
	if err != nil {
		return nil, err
	}
	opts := []ndarray.Option{ndarray.WithOrder(order)}
	if alloc != nil {
		opts = append(opts, ndarray.WithAllocator(alloc))
	}
	if !c.ZeroInit {
		opts = append(opts, ndarray.Uninitialized())
	}
	return opts, nil
}
