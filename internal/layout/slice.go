package layout

import (
	"fmt"

	"github.com/pkg/errors"
)

// IndexKind is the kind of one slice specification component.
type IndexKind int

// Slice component kinds.
const (
	// KindSingle selects one position and removes the axis.
	KindSingle IndexKind = iota
	// KindRange selects a strided half-open range and keeps the axis.
	KindRange
	// KindNewAxis inserts an axis of extent 1 without consuming a source axis.
	KindNewAxis
	// KindEllipsis stands for as many full axes as needed, possibly none.
	KindEllipsis
)

// Index is one component of a slice specification.
//
// Ranges follow the usual half-open convention with NumPy-style defaults:
// negative bounds count from the end, bounds are clamped to the axis, and a
// negative step walks the axis backwards starting at Start.
type Index struct {
	kind     IndexKind
	start    int
	stop     int
	step     int
	hasStart bool
	hasStop  bool
}

// At selects a single position, removing the axis. Negative values count from the end.
func At(i int) Index {
	return Index{kind: KindSingle, start: i}
}

// All selects the full axis.
func All() Index {
	return Index{kind: KindRange, step: 1}
}

// Range selects [start, stop) with step 1.
func Range(start, stop int) Index {
	return Index{kind: KindRange, start: start, stop: stop, step: 1, hasStart: true, hasStop: true}
}

// RangeStep selects start, start+step, ... up to but excluding stop.
func RangeStep(start, stop, step int) Index {
	return Index{kind: KindRange, start: start, stop: stop, step: step, hasStart: true, hasStop: true}
}

// From selects [start, end of axis).
func From(start int) Index {
	return Index{kind: KindRange, start: start, step: 1, hasStart: true}
}

// To selects [0, stop).
func To(stop int) Index {
	return Index{kind: KindRange, stop: stop, step: 1, hasStop: true}
}

// NewAxis inserts an axis of extent 1.
func NewAxis() Index {
	return Index{kind: KindNewAxis}
}

// Ellipsis expands to full axes for every source axis not otherwise consumed.
func Ellipsis() Index {
	return Index{kind: KindEllipsis}
}

// Step returns a copy of a range component with the given step.
// Applied to a non-range component it returns the component unchanged.
func (ix Index) Step(step int) Index {
	if ix.kind == KindRange {
		ix.step = step
	}
	return ix
}

// Kind returns the component kind.
func (ix Index) Kind() IndexKind {
	return ix.kind
}

// consumesAxis reports whether the component maps onto a source axis.
func (ix Index) consumesAxis() bool {
	return ix.kind == KindSingle || ix.kind == KindRange
}

// String renders the component in Python slice notation.
func (ix Index) String() string {
	switch ix.kind {
	case KindSingle:
		return fmt.Sprint(ix.start)
	case KindNewAxis:
		return "newaxis"
	case KindEllipsis:
		return "..."
	}
	s := ""
	if ix.hasStart {
		s += fmt.Sprint(ix.start)
	}
	s += ":"
	if ix.hasStop {
		s += fmt.Sprint(ix.stop)
	}
	if ix.step != 1 {
		s += fmt.Sprintf(":%d", ix.step)
	}
	return s
}

// resolve computes the first selected position, the step and the number of
// selected positions for an axis of extent dim.
func (ix Index) resolve(dim int) (start, step, length int, err error) {
	step = ix.step
	if step == 0 {
		return 0, 0, 0, errors.Wrapf(ErrInvalidSlice, "slice %s has zero step", ix)
	}

	bound := func(v, lo, hi int) int {
		if v < 0 {
			v += dim
		}
		return max(lo, min(v, hi))
	}

	var stop int
	if step > 0 {
		start, stop = 0, dim
		if ix.hasStart {
			start = bound(ix.start, 0, dim)
		}
		if ix.hasStop {
			stop = bound(ix.stop, 0, dim)
		}
		if stop > start {
			length = (stop - start + step - 1) / step
		}
	} else {
		start, stop = dim-1, -1
		if ix.hasStart {
			start = bound(ix.start, -1, dim-1)
		}
		if ix.hasStop {
			stop = bound(ix.stop, -1, dim-1)
		}
		if start > stop {
			length = (start - stop - step - 1) / -step
		}
	}
	return start, step, length, nil
}

// expand replaces the ellipsis with full axes and validates the specification
// against a source of the given rank. A specification without an ellipsis that
// consumes fewer axes than rank is completed with trailing full axes.
func expand(spec []Index, rank int) ([]Index, error) {
	consumers, ellipses := 0, 0
	for _, ix := range spec {
		switch {
		case ix.kind == KindEllipsis:
			ellipses++
		case ix.consumesAxis():
			consumers++
		}
	}
	if ellipses > 1 {
		return nil, errors.Wrapf(ErrInvalidSlice, "%d ellipses in one specification", ellipses)
	}
	if consumers > rank {
		return nil, errors.Wrapf(ErrInvalidSlice, "%d axis-consuming components for rank %d", consumers, rank)
	}

	fill := rank - consumers
	out := make([]Index, 0, len(spec)+fill)
	for _, ix := range spec {
		if ix.kind == KindEllipsis {
			for range fill {
				out = append(out, All())
			}
			fill = 0
			continue
		}
		out = append(out, ix)
	}
	for range fill {
		out = append(out, All())
	}
	return out, nil
}

// Slice applies a slice specification and returns the resulting geometry.
// It runs in O(rank) and never touches storage.
func (l Layout) Slice(spec ...Index) (Layout, error) {
	full, err := expand(spec, l.Rank())
	if err != nil {
		return Layout{}, err
	}

	shape := make(Shape, 0, len(full))
	strides := make(Strides, 0, len(full))
	offset := l.offset
	axis := 0
	for _, ix := range full {
		switch ix.kind {
		case KindNewAxis:
			shape = append(shape, 1)
			strides = append(strides, 0)
		case KindSingle:
			n, err := normalizeIndex(ix.start, l.shape[axis], axis)
			if err != nil {
				return Layout{}, err
			}
			offset += n * l.strides[axis]
			axis++
		case KindRange:
			start, step, length, err := ix.resolve(l.shape[axis])
			if err != nil {
				return Layout{}, errors.WithMessagef(err, "axis %d", axis)
			}
			if length > 0 {
				offset += start * l.strides[axis]
			}
			shape = append(shape, length)
			strides = append(strides, l.strides[axis]*step)
			axis++
		}
	}
	return Layout{shape: shape, strides: strides, offset: offset}, nil
}
