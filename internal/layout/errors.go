package layout

import "github.com/pkg/errors"

// Geometry errors. Functions wrap these with context; match them with errors.Is.
var (
	// ErrDimensionMismatch is returned when sequences that must have one entry
	// per axis disagree in length (shape vs strides, index vs rank, permutation vs rank).
	ErrDimensionMismatch = errors.New("layout: dimension mismatch")

	// ErrIndexOutOfRange is returned when an index component is outside its extent
	// after negative-from-end normalization.
	ErrIndexOutOfRange = errors.New("layout: index out of range")

	// ErrInvalidSlice is returned for malformed slice specifications: more than one
	// ellipsis, more axis-consuming components than the source rank, or a zero step.
	ErrInvalidSlice = errors.New("layout: invalid slice")

	// ErrShapeMismatch is returned when shapes cannot be broadcast together or
	// element counts disagree.
	ErrShapeMismatch = errors.New("layout: shape mismatch")

	// ErrNotReshapeable is returned when a reshape would require copying because the
	// source is not contiguous under the target order.
	ErrNotReshapeable = errors.New("layout: not reshapeable without copy")

	// ErrInvalidShape is returned for negative extents or element counts that overflow int.
	ErrInvalidShape = errors.New("layout: invalid shape")
)
