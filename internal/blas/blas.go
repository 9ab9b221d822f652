// Package blas runs level 1 and level 3 CBLAS routines on arrays through
// their raw-buffer escape. The shared library is loaded at runtime without cgo.
package blas

import (
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/enda-lib/enda/internal/layout"
	"github.com/enda-lib/enda/internal/mem"
	"github.com/enda-lib/enda/internal/ndarray"
)

// Errors.
var (
	// ErrUnavailable is returned when no usable CBLAS library can be loaded.
	ErrUnavailable = errors.New("blas: library unavailable")
	// ErrLayout is returned for geometries a BLAS call cannot express.
	ErrLayout = errors.New("blas: unsupported layout")
)

// CBLAS enum values.
const (
	rowMajor int32 = 101
	colMajor int32 = 102
	noTrans  int32 = 111
	trans    int32 = 112
)

// Float is the element constraint of the BLAS routines.
type Float interface {
	~float32 | ~float64
}

// Library is a loaded CBLAS implementation. It is safe for concurrent use;
// Close must not race with calls.
type Library struct {
	path    string
	handle  uintptr
	config  string
	version *semver.Version

	closeOnce sync.Once

	ddot  func(n int32, x unsafe.Pointer, incx int32, y unsafe.Pointer, incy int32) float64
	sdot  func(n int32, x unsafe.Pointer, incx int32, y unsafe.Pointer, incy int32) float32
	daxpy func(n int32, alpha float64, x unsafe.Pointer, incx int32, y unsafe.Pointer, incy int32)
	saxpy func(n int32, alpha float32, x unsafe.Pointer, incx int32, y unsafe.Pointer, incy int32)
	dscal func(n int32, alpha float64, x unsafe.Pointer, incx int32)
	sscal func(n int32, alpha float32, x unsafe.Pointer, incx int32)
	dgemm func(order, ta, tb, m, n, k int32, alpha float64, a unsafe.Pointer, lda int32,
		b unsafe.Pointer, ldb int32, beta float64, c unsafe.Pointer, ldc int32)
	sgemm func(order, ta, tb, m, n, k int32, alpha float32, a unsafe.Pointer, lda int32,
		b unsafe.Pointer, ldb int32, beta float32, c unsafe.Pointer, ldc int32)
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// Config returns the OpenBLAS build description, empty for other implementations.
func (l *Library) Config() string { return l.config }

// Version returns the OpenBLAS version, or nil when unknown.
func (l *Library) Version() *semver.Version { return l.version }

// Close unloads the library.
func (l *Library) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = closeLibrary(l.handle)
		l.handle = 0
	})
	return err
}

// Open loads a CBLAS library from path, or from the first loadable candidate
// name when path is empty. OpenBLAS builds older than minVersion are rejected;
// an empty minVersion accepts any build.
func Open(path, minVersion string) (*Library, error) {
	var minV *semver.Version
	if minVersion != "" {
		v, err := semver.NewVersion(minVersion)
		if err != nil {
			return nil, errors.Wrapf(err, "blas: min version %q", minVersion)
		}
		minV = v
	}

	candidates := defaultCandidates
	if path != "" {
		candidates = []string{path}
	}
	var lastErr error
	for _, name := range candidates {
		lib, err := open(name)
		if err != nil {
			klog.V(2).Infof("blas: %s: %v", name, err)
			lastErr = err
			continue
		}
		if minV != nil && lib.version != nil && lib.version.LessThan(minV) {
			klog.Warningf("blas: %s is OpenBLAS %s, older than required %s", name, lib.version, minV)
			_ = lib.Close()
			lastErr = errors.Errorf("%s: version %s < %s", name, lib.version, minV)
			continue
		}
		klog.V(1).Infof("blas: loaded %s (%s)", name, lib.config)
		return lib, nil
	}
	return nil, errors.Wrapf(ErrUnavailable, "%v", lastErr)
}

// parseVersion extracts the version from an openblas_get_config string such
// as "OpenBLAS 0.3.21 DYNAMIC_ARCH NO_AFFINITY Haswell MAX_THREADS=64".
func parseVersion(config string) (*semver.Version, error) {
	fields := strings.Fields(config)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "OpenBLAS") {
		return nil, errors.Errorf("blas: unrecognized config %q", config)
	}
	return semver.NewVersion(strings.TrimSuffix(fields[1], ".dev"))
}

// vector describes a rank-1 operand in BLAS terms.
type vector struct {
	ptr unsafe.Pointer
	n   int32
	inc int32
}

// vectorArg converts a rank-1 raw escape into a BLAS vector. BLAS addresses a
// vector with negative increment from its lowest element.
func vectorArg[T Float](raw ndarray.Raw[T]) (vector, error) {
	if len(raw.Shape) != 1 {
		return vector{}, errors.Wrapf(ErrLayout, "rank %d operand, want a vector", len(raw.Shape))
	}
	n, inc := raw.Shape[0], raw.Strides[0]
	if n > maxInt32 || inc > maxInt32 || inc < -maxInt32 {
		return vector{}, errors.Wrapf(ErrLayout, "vector of %d elements with stride %d exceeds BLAS int", n, inc)
	}
	if n == 0 {
		return vector{n: 0, inc: 1}, nil
	}
	if inc == 0 && n > 1 {
		return vector{}, errors.Wrap(ErrLayout, "zero-stride vector")
	}
	if inc == 0 {
		inc = 1
	}
	first := raw.Offset
	if inc < 0 {
		first += (n - 1) * inc
	}
	return vector{ptr: unsafe.Pointer(&raw.Data[first]), n: int32(n), inc: int32(inc)}, nil
}

// matrix describes a rank-2 operand in BLAS terms for a given storage order.
type matrix struct {
	ptr   unsafe.Pointer
	trans int32
	ld    int32
}

// matrixArg expresses shape/strides as a possibly transposed matrix with a
// leading dimension under order. One stride must be 1 and the other must be
// at least the extent it steps over.
func matrixArg(shape layout.Shape, strides layout.Strides, order int32) (transpose, ld int32, err error) {
	if len(shape) != 2 {
		return 0, 0, errors.Wrapf(ErrLayout, "rank %d operand, want a matrix", len(shape))
	}
	rows, cols := shape[0], shape[1]
	if rows == 0 || cols == 0 {
		// No element is addressed; any leading dimension that BLAS accepts will do.
		if order == rowMajor {
			return noTrans, int32(min(max(cols, 1), maxInt32)), nil
		}
		return noTrans, int32(min(max(rows, 1), maxInt32)), nil
	}
	s0, s1 := strides[0], strides[1]
	// Extent-1 axes never move, so their stride is free.
	if rows == 1 {
		if s1 == 1 {
			s0 = max(cols, 1)
		} else {
			s0 = 1
		}
	}
	if cols == 1 {
		if s0 == 1 {
			s1 = max(rows, 1)
		} else {
			s1 = 1
		}
	}

	// Which axis is unit-stride decides the orientation; the other stride is ld.
	var unitAxis, ldv int
	switch {
	case s1 == 1 && s0 >= max(cols, 1):
		unitAxis, ldv = 1, s0
	case s0 == 1 && s1 >= max(rows, 1):
		unitAxis, ldv = 0, s1
	default:
		return 0, 0, errors.Wrapf(ErrLayout, "strides %v for shape %v", []int(strides), []int(shape))
	}
	if ldv > maxInt32 {
		return 0, 0, errors.Wrapf(ErrLayout, "leading dimension %d exceeds BLAS int", ldv)
	}

	// Row-major storage keeps the unit stride on the column axis.
	if (order == rowMajor) == (unitAxis == 1) {
		return noTrans, int32(ldv), nil
	}
	return trans, int32(ldv), nil
}

const maxInt32 = 1<<31 - 1

// rawOf returns the escape of an operand, rejecting writes to read-only views.
func rawOf[T Float](a ndarray.Strided[T], write bool) (ndarray.Raw[T], error) {
	if write && a.ReadOnly() {
		return ndarray.Raw[T]{}, errors.Wrap(ndarray.ErrOwnershipViolation, "blas: output is a read-only view")
	}
	return ndarray.RawOf(a)
}

// pin keeps the operands' backing arrays in place for the duration of a call.
func pin[T Float](p *runtime.Pinner, raws ...ndarray.Raw[T]) {
	for _, r := range raws {
		if len(r.Data) > 0 {
			p.Pin(&r.Data[0])
		}
	}
}

func isFloat64[T Float]() bool {
	return mem.DataTypeOf[T]() == mem.Float64
}

// Dot returns the inner product of two vectors of equal length.
func Dot[T Float](l *Library, x, y ndarray.Strided[T]) (T, error) {
	rx, err := rawOf(x, false)
	if err != nil {
		return 0, err
	}
	ry, err := rawOf(y, false)
	if err != nil {
		return 0, err
	}
	if !rx.Shape.Equal(ry.Shape) {
		return 0, errors.Wrapf(ndarray.ErrShapeMismatch, "dot: %v and %v", rx.Shape, ry.Shape)
	}
	vx, err := vectorArg(rx)
	if err != nil {
		return 0, err
	}
	vy, err := vectorArg(ry)
	if err != nil {
		return 0, err
	}
	if vx.n == 0 {
		return 0, nil
	}

	var p runtime.Pinner
	defer p.Unpin()
	pin(&p, rx, ry)
	if isFloat64[T]() {
		return T(l.ddot(vx.n, vx.ptr, vx.inc, vy.ptr, vy.inc)), nil
	}
	return T(l.sdot(vx.n, vx.ptr, vx.inc, vy.ptr, vy.inc)), nil
}

// Axpy computes y += alpha*x in place.
func Axpy[T Float](l *Library, alpha T, x, y ndarray.Strided[T]) error {
	if x.Storage() == y.Storage() && x.Layout().Overlaps(y.Layout()) {
		tmp, err := ndarray.Copy(x)
		if err != nil {
			return err
		}
		defer func() { _ = tmp.Release() }()
		x = tmp
	}
	rx, err := rawOf(x, false)
	if err != nil {
		return err
	}
	ry, err := rawOf(y, true)
	if err != nil {
		return err
	}
	if !rx.Shape.Equal(ry.Shape) {
		return errors.Wrapf(ndarray.ErrShapeMismatch, "axpy: %v and %v", rx.Shape, ry.Shape)
	}
	vx, err := vectorArg(rx)
	if err != nil {
		return err
	}
	vy, err := vectorArg(ry)
	if err != nil {
		return err
	}
	if vx.n == 0 {
		return nil
	}

	var p runtime.Pinner
	defer p.Unpin()
	pin(&p, rx, ry)
	if isFloat64[T]() {
		l.daxpy(vx.n, float64(alpha), vx.ptr, vx.inc, vy.ptr, vy.inc)
	} else {
		l.saxpy(vx.n, float32(alpha), vx.ptr, vx.inc, vy.ptr, vy.inc)
	}
	return nil
}

// Scal computes x *= alpha in place.
func Scal[T Float](l *Library, alpha T, x ndarray.Strided[T]) error {
	rx, err := rawOf(x, true)
	if err != nil {
		return err
	}
	vx, err := vectorArg(rx)
	if err != nil {
		return err
	}
	if vx.n == 0 {
		return nil
	}
	if vx.inc < 0 {
		// Scaling is order independent; BLAS ignores negative increments here.
		vx.inc = -vx.inc
	}

	var p runtime.Pinner
	defer p.Unpin()
	pin(&p, rx)
	if isFloat64[T]() {
		l.dscal(vx.n, float64(alpha), vx.ptr, vx.inc)
	} else {
		l.sscal(vx.n, float32(alpha), vx.ptr, vx.inc)
	}
	return nil
}

// Gemm computes c = alpha*a@b + beta*c for a [m,k], b [k,n] and c [m,n].
// Each operand needs one unit stride; c may not alias a or b.
func Gemm[T Float](l *Library, alpha T, a, b ndarray.Strided[T], beta T, c ndarray.Strided[T]) error {
	ra, err := rawOf(a, false)
	if err != nil {
		return err
	}
	rb, err := rawOf(b, false)
	if err != nil {
		return err
	}
	rc, err := rawOf(c, true)
	if err != nil {
		return err
	}
	if len(ra.Shape) != 2 || len(rb.Shape) != 2 || len(rc.Shape) != 2 {
		return errors.Wrapf(ndarray.ErrDimensionMismatch, "gemm: ranks %d, %d, %d", len(ra.Shape), len(rb.Shape), len(rc.Shape))
	}
	m, k, n := ra.Shape[0], ra.Shape[1], rb.Shape[1]
	if rb.Shape[0] != k || rc.Shape[0] != m || rc.Shape[1] != n {
		return errors.Wrapf(ndarray.ErrShapeMismatch, "gemm: %v @ %v into %v", ra.Shape, rb.Shape, rc.Shape)
	}
	if max(m, n, k) > maxInt32 {
		return errors.Wrap(ErrLayout, "gemm: extent exceeds BLAS int")
	}
	for _, in := range []ndarray.Strided[T]{a, b} {
		if in.Storage() == c.Storage() && in.Layout().Overlaps(c.Layout()) {
			return errors.Wrap(ndarray.ErrOwnershipViolation, "gemm: output aliases an input")
		}
	}
	if m == 0 || n == 0 {
		return nil
	}

	// Column-major output needs the column-major CBLAS order.
	order := rowMajor
	tc, ldc, err := matrixArg(rc.Shape, rc.Strides, rowMajor)
	if err != nil {
		return err
	}
	if tc == trans {
		order = colMajor
		if _, ldc, err = matrixArg(rc.Shape, rc.Strides, colMajor); err != nil {
			return err
		}
	}
	ta, lda, err := matrixArg(ra.Shape, ra.Strides, order)
	if err != nil {
		return err
	}
	tb, ldb, err := matrixArg(rb.Shape, rb.Strides, order)
	if err != nil {
		return err
	}
	pa, pb, pc := elemPtr(ra), elemPtr(rb), elemPtr(rc)

	var p runtime.Pinner
	defer p.Unpin()
	pin(&p, ra, rb, rc)
	if isFloat64[T]() {
		l.dgemm(order, ta, tb, int32(m), int32(n), int32(k), float64(alpha), pa, lda, pb, ldb, float64(beta), pc, ldc)
	} else {
		l.sgemm(order, ta, tb, int32(m), int32(n), int32(k), float32(alpha), pa, lda, pb, ldb, float32(beta), pc, ldc)
	}
	return nil
}

// elemPtr returns the address of element [0,0], or a harmless pointer into the
// buffer for an empty operand.
func elemPtr[T Float](r ndarray.Raw[T]) unsafe.Pointer {
	if p := r.Pointer(); p != nil {
		return p
	}
	if len(r.Data) > 0 {
		return unsafe.Pointer(&r.Data[0])
	}
	var zero T
	return unsafe.Pointer(&zero)
}
