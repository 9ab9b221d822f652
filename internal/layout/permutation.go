package layout

import (
	"github.com/pkg/errors"
)

// maxEncodedRank is the largest permutation Encode can pack into 64 bits.
const maxEncodedRank = 16

// Permutation is a reordering of the axes 0..n-1.
//
// Apply(p, xs)[i] == xs[p[i]]: the i-th output takes the p[i]-th input.
type Permutation []int

// Identity returns the identity permutation of size n.
func Identity(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Reverse returns the permutation that reverses n axes.
func Reverse(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = n - 1 - i
	}
	return p
}

// Transposition returns the permutation of size n swapping i and j.
func Transposition(n, i, j int) Permutation {
	p := Identity(n)
	p[i], p[j] = p[j], p[i]
	return p
}

// Cycle returns the permutation of size n that rotates its first pos entries
// right by k (left for negative k). Entries at pos and beyond are fixed.
func Cycle(n, k, pos int) Permutation {
	p := Identity(n)
	if pos <= 0 {
		return p
	}
	pos = min(pos, n)
	for i := 0; i < pos; i++ {
		p[i] = ((i-k)%pos + pos) % pos
	}
	return p
}

// IsValid reports whether p contains each of 0..len(p)-1 exactly once.
func (p Permutation) IsValid() bool {
	seen := make([]bool, len(p))
	for _, v := range p {
		if v < 0 || v >= len(p) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// IsIdentity reports whether p maps every axis to itself.
func (p Permutation) IsIdentity() bool {
	for i, v := range p {
		if v != i {
			return false
		}
	}
	return true
}

// Equal checks if two permutations are equal.
func (p Permutation) Equal(q Permutation) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the permutation.
func (p Permutation) Clone() Permutation {
	return append(Permutation(nil), p...)
}

// Compose returns the permutation r with r[i] == q[p[i]], so that
// Apply(r, xs) == Apply(p, Apply(q, xs)).
func (p Permutation) Compose(q Permutation) (Permutation, error) {
	if len(p) != len(q) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "compose: sizes %d and %d", len(p), len(q))
	}
	r := make(Permutation, len(p))
	for i, v := range p {
		r[i] = q[v]
	}
	return r, nil
}

// Inverse returns the permutation undoing p.
func (p Permutation) Inverse() Permutation {
	inv := make(Permutation, len(p))
	for i, v := range p {
		inv[v] = i
	}
	return inv
}

// Apply returns xs reordered by p: out[i] = xs[p[i]].
func Apply[T any](p Permutation, xs []T) ([]T, error) {
	if len(p) != len(xs) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "apply: permutation of size %d on %d values", len(p), len(xs))
	}
	out := make([]T, len(xs))
	for i, v := range p {
		out[i] = xs[v]
	}
	return out, nil
}

// ApplyInverse undoes Apply: out[p[i]] = xs[i].
func ApplyInverse[T any](p Permutation, xs []T) ([]T, error) {
	if len(p) != len(xs) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "apply inverse: permutation of size %d on %d values", len(p), len(xs))
	}
	out := make([]T, len(xs))
	for i, v := range p {
		out[v] = xs[i]
	}
	return out, nil
}

// Encode packs p into 64 bits, 4 bits per entry, entry i at bits 4i..4i+3.
func (p Permutation) Encode() (uint64, error) {
	if len(p) > maxEncodedRank {
		return 0, errors.Wrapf(ErrDimensionMismatch, "encode: rank %d exceeds %d", len(p), maxEncodedRank)
	}
	if !p.IsValid() {
		return 0, errors.Wrapf(ErrDimensionMismatch, "encode: %v is not a permutation", []int(p))
	}
	var code uint64
	for i, v := range p {
		code |= uint64(v) << (4 * i) //nolint:gosec // G115: v is in [0, 16).
	}
	return code, nil
}

// Decode unpacks a permutation of size n produced by Encode.
func Decode(code uint64, n int) (Permutation, error) {
	if n < 0 || n > maxEncodedRank {
		return nil, errors.Wrapf(ErrDimensionMismatch, "decode: rank %d outside [0, %d]", n, maxEncodedRank)
	}
	p := make(Permutation, n)
	for i := range p {
		p[i] = int((code >> (4 * i)) & 0xF)
	}
	if !p.IsValid() {
		return nil, errors.Wrapf(ErrDimensionMismatch, "decode: %#x is not a permutation of size %d", code, n)
	}
	return p, nil
}
