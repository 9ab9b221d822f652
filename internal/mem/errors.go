package mem

import "github.com/pkg/errors"

// Storage errors.
var (
	// ErrOwnershipViolation is returned for illegal aliasing: sharing uniquely-owned
	// storage, releasing more often than shared, or touching released storage.
	ErrOwnershipViolation = errors.New("mem: ownership violation")

	// ErrAllocationFailure is returned when memory cannot be obtained.
	ErrAllocationFailure = errors.New("mem: allocation failure")
)
