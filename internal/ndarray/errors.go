package ndarray

import (
	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
)

// Errors returned by array operations. They are the sentinels of the geometry
// and storage layers, so errors.Is works whichever layer produced them.
var (
	ErrDimensionMismatch  = layout.ErrDimensionMismatch
	ErrIndexOutOfRange    = layout.ErrIndexOutOfRange
	ErrInvalidSlice       = layout.ErrInvalidSlice
	ErrShapeMismatch      = layout.ErrShapeMismatch
	ErrNotReshapeable     = layout.ErrNotReshapeable
	ErrInvalidShape       = layout.ErrInvalidShape
	ErrOwnershipViolation = mem.ErrOwnershipViolation
	ErrAllocationFailure  = mem.ErrAllocationFailure
)
