//go:build windows

package blas

import "github.com/pkg/errors"

var defaultCandidates = []string{"libopenblas.dll"}

func open(path string) (*Library, error) {
	return nil, errors.Errorf("blas: runtime loading of %s is not supported on windows", path)
}

func closeLibrary(uintptr) error { return nil }
