package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/enda-lib/enda/internal/blas"
	"github.com/enda-lib/enda/internal/config"
	"github.com/enda-lib/enda/internal/mem"
)

func cpuFeatures() []string {
	var feats []string
	add := func(name string, ok bool) {
		if ok {
			feats = append(feats, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add("sse4.1", cpu.X86.HasSSE41)
		add("sse4.2", cpu.X86.HasSSE42)
		add("avx", cpu.X86.HasAVX)
		add("avx2", cpu.X86.HasAVX2)
		add("fma", cpu.X86.HasFMA)
		add("avx512f", cpu.X86.HasAVX512F)
	case "arm64":
		add("asimd", cpu.ARM64.HasASIMD)
		add("fp16", cpu.ARM64.HasFPHP)
		add("sve", cpu.ARM64.HasSVE)
	}
	return feats
}

func runInfo(cfg *config.Config, _ []string, out io.Writer) error {
	fmt.Fprintf(out, "Platform:    %s/%s, %d CPUs\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	fmt.Fprintf(out, "Features:    %s\n", strings.Join(cpuFeatures(), " "))
	fmt.Fprintf(out, "Cache line:  %d bytes\n", mem.CacheLineSize)

	alloc, err := cfg.NewAllocator()
	if err != nil {
		return err
	}
	par := cfg.ParallelConfig()
	fmt.Fprintf(out, "Order:       %s\n", cfg.Order)
	fmt.Fprintf(out, "Allocator:   %s\n", alloc.Name())
	fmt.Fprintf(out, "Parallel:    enabled=%t workers=%d min_chunk=%d\n", par.Enabled, par.NumWorkers, par.MinChunkSize)

	lib, err := blas.Open(cfg.BLAS.Library, cfg.BLAS.MinVersion)
	if err != nil {
		fmt.Fprintf(out, "BLAS:        unavailable (%v)\n", err)
		return nil
	}
	defer func() { _ = lib.Close() }()
	desc := lib.Path()
	if v := lib.Version(); v != nil {
		desc += " (OpenBLAS " + v.String() + ")"
	}
	fmt.Fprintf(out, "BLAS:        %s\n", desc)
	return nil
}
