//go:build !windows

package blas

import (
	"runtime"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

var defaultCandidates = func() []string {
	if runtime.GOOS == "darwin" {
		return []string{
			"libopenblas.dylib",
			"/opt/homebrew/opt/openblas/lib/libopenblas.dylib",
			"/usr/local/opt/openblas/lib/libopenblas.dylib",
			"/System/Library/Frameworks/Accelerate.framework/Accelerate",
		}
	}
	return []string{
		"libopenblas.so.0",
		"libopenblas.so",
		"libcblas.so.3",
		"libblas.so.3",
	}
}()

func open(path string) (lib *Library, err error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrapf(err, "blas: dlopen %s", path)
	}
	defer func() {
		if err != nil {
			_ = purego.Dlclose(handle)
		}
	}()

	lib = &Library{path: path, handle: handle}
	syms := []struct {
		name string
		fn   any
	}{
		{"cblas_ddot", &lib.ddot},
		{"cblas_sdot", &lib.sdot},
		{"cblas_daxpy", &lib.daxpy},
		{"cblas_saxpy", &lib.saxpy},
		{"cblas_dscal", &lib.dscal},
		{"cblas_sscal", &lib.sscal},
		{"cblas_dgemm", &lib.dgemm},
		{"cblas_sgemm", &lib.sgemm},
	}
	for _, s := range syms {
		sym, err := purego.Dlsym(handle, s.name)
		if err != nil {
			return nil, errors.Wrapf(err, "blas: %s in %s", s.name, path)
		}
		purego.RegisterFunc(s.fn, sym)
	}

	// Only OpenBLAS reports its build; reference CBLAS stays unversioned.
	if sym, err := purego.Dlsym(handle, "openblas_get_config"); err == nil {
		var getConfig func() string
		purego.RegisterFunc(&getConfig, sym)
		lib.config = getConfig()
		if v, err := parseVersion(lib.config); err == nil {
			lib.version = v
		}
	}
	return lib, nil
}

func closeLibrary(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return purego.Dlclose(handle)
}
