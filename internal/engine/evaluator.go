// Package engine implements the bulk spline evaluator: many independent
// piecewise-cubic curves advanced and sampled together once per tick, with
// all per-curve state held in parallel arrays.
package engine

import (
	"log/slog"
	"math"
	"slices"

	"github.com/tphakala/go-bulk-spline/internal/curve"
	"github.com/tphakala/go-bulk-spline/internal/kernels"
)

// Spline is the curve contract the evaluator consumes. Implementations must
// not change while any slot references them; the evaluator never writes
// through this interface.
type Spline interface {
	// IndexForX returns the segment containing x, trying hint first.
	// It returns curve.SegmentAfterEnd at or past the end of the curve.
	IndexForX(x float64, hint curve.SegmentIndex) curve.SegmentIndex

	// RangeX returns the input interval of a segment.
	RangeX(i curve.SegmentIndex) curve.Range

	// CreateCubicInit returns the Hermite end conditions of a segment.
	CreateCubicInit(i curve.SegmentIndex) curve.CubicInit

	// LengthX returns the total input length, the period of looping playback.
	LengthX() float64

	// StartX returns the input position of the first node.
	StartX() float64
}

// Playback describes what a slot plays: the curve, where to start along
// its input axis and whether reaching the end loops back to the start.
type Playback struct {
	Spline Spline
	StartX float64
	Repeat bool
}

// Options configures a BulkEvaluator.
type Options struct {
	// Optimization selects the hot-loop implementation.
	Optimization Optimization

	// Verify runs both implementations of every hot loop and panics if
	// their results differ in any bit. Development use only.
	Verify bool

	// Logger receives debug records; nil discards them.
	Logger *slog.Logger
}

// source is the playback state of one slot. spline is borrowed, never owned.
type source struct {
	spline  Spline
	segment curve.SegmentIndex
	repeat  bool
}

// yRange says how raw samples are projected into the visible output range.
type yRange struct {
	validY  curve.Range
	modular bool
}

// unbounded is the output range of a slot that was never given one:
// clamping to it leaves every finite sample unchanged.
var unbounded = yRange{validY: curve.NewRange(math.Inf(-1), math.Inf(1))}

// BulkEvaluator advances and samples many splines in lockstep.
//
// Slot i is described by element i of every array below. The arrays are
// always the same length and are resized and relocated together.
//
// A BulkEvaluator is not safe for concurrent use.
type BulkEvaluator struct {
	sources    []source
	yRanges    []yRange
	cubicXs    []float64                 // offset into the active segment
	cubicXEnds []float64                 // width of the active segment
	coeffs     [curve.NumCoeff][]float64 // active cubic, one column per coefficient
	ys         []float64                 // last normalized sample

	// scratch holds the list of slots to reinitialize during AdvanceFrame.
	// Its contents are meaningless between calls.
	scratch []uint32

	optimization Optimization
	kernels      *kernels.Kernels
	verify       bool
	logger       *slog.Logger
}

// NewBulkEvaluator returns an evaluator with no slots.
func NewBulkEvaluator(opts Options) *BulkEvaluator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mode := opts.Optimization.Resolve()
	e := &BulkEvaluator{
		optimization: mode,
		kernels:      kernelsFor(mode),
		verify:       opts.Verify,
		logger:       logger,
	}

	logger.Debug("bulk spline evaluator configured",
		"optimization", mode.String(),
		"requested", opts.Optimization.String(),
		"kernels", e.kernels.Name,
		"isa", kernels.Detected().String(),
		"verify", opts.Verify)

	return e
}

// Optimization returns the resolved hot-loop mode.
func (e *BulkEvaluator) Optimization() Optimization {
	return e.optimization
}

// KernelName names the kernel table running the hot loops.
func (e *BulkEvaluator) KernelName() string {
	return e.kernels.Name
}

// Verifying reports whether cross-checking is enabled.
func (e *BulkEvaluator) Verifying() bool {
	return e.verify
}

// NumIndices returns the number of slots.
func (e *BulkEvaluator) NumIndices() int {
	return len(e.sources)
}

// SetNumIndices resizes every slot array to n. New slots start invalid:
// no spline, zero offsets and a zero-length segment. Their output range is
// unbounded and non-modular until SetYRange is called. Shrinking drops the
// highest slots.
func (e *BulkEvaluator) SetNumIndices(n int) {
	e.sources = resize(e.sources, n, source{segment: curve.SegmentNone})
	e.yRanges = resize(e.yRanges, n, unbounded)
	e.cubicXs = resize(e.cubicXs, n, 0)
	e.cubicXEnds = resize(e.cubicXEnds, n, 0)
	for c := range e.coeffs {
		e.coeffs[c] = resize(e.coeffs[c], n, 0)
	}
	e.ys = resize(e.ys, n, 0)
	e.scratch = resize(e.scratch, n, 0)

	if debugAssertions {
		e.checkLengths()
	}
}

// resize returns s with length n. Slots beyond the old length are set to
// fill; slots cut off are cleared so they release any references.
func resize[T any](s []T, n int, fill T) []T {
	if n <= len(s) {
		clear(s[n:])
		return s[:n]
	}
	old := len(s)
	s = slices.Grow(s, n-old)[:n]
	for i := old; i < n; i++ {
		s[i] = fill
	}
	return s
}

// MoveIndex copies every per-slot field of src to dst. Owners use it to
// keep active slots dense after removing one. src is left unchanged.
func (e *BulkEvaluator) MoveIndex(src, dst int) {
	e.sources[dst] = e.sources[src]
	e.yRanges[dst] = e.yRanges[src]
	e.cubicXs[dst] = e.cubicXs[src]
	e.cubicXEnds[dst] = e.cubicXEnds[src]
	for c := range e.coeffs {
		e.coeffs[c][dst] = e.coeffs[c][src]
	}
	e.ys[dst] = e.ys[src]
}

// SetYRange sets the output interval of a slot and whether it wraps.
// It takes effect at the next segment entry or evaluation; set it before
// SetSpline when the very first sample must already be range-correct.
func (e *BulkEvaluator) SetYRange(index int, validY curve.Range, modular bool) {
	e.yRanges[index] = yRange{validY: validY, modular: modular}
}

// SetSpline starts playback on a slot: the segment containing p.StartX is
// resolved immediately and an initial sample computed. A nil p.Spline
// clears the slot.
func (e *BulkEvaluator) SetSpline(index int, p Playback) {
	if p.Spline == nil {
		e.ClearSpline(index)
		return
	}

	e.sources[index] = source{
		spline:  p.Spline,
		segment: curve.SegmentNone,
		repeat:  p.Repeat,
	}
	e.InitCubic(index, p.StartX)
	e.EvaluateIndex(index)
}

// ClearSpline returns a slot to the invalid state. Its output range is kept.
func (e *BulkEvaluator) ClearSpline(index int) {
	e.sources[index] = source{segment: curve.SegmentNone}
	e.cubicXs[index] = 0
	e.cubicXEnds[index] = 0
	for c := range e.coeffs {
		e.coeffs[c][index] = 0
	}
	e.ys[index] = 0
}

// Valid reports whether index is in bounds and has a spline.
func (e *BulkEvaluator) Valid(index int) bool {
	return 0 <= index && index < e.NumIndices() && e.sources[index].spline != nil
}

// Y returns the latest sample of a slot; 0 for invalid slots.
func (e *BulkEvaluator) Y(index int) float64 {
	return e.ys[index]
}

// Ys returns the samples of every slot. The slice is owned by the
// evaluator: callers must not modify it, and it is only valid until the
// next call that changes the slot count.
func (e *BulkEvaluator) Ys() []float64 {
	return e.ys
}

// X returns the absolute input position of a slot; 0 for invalid slots.
func (e *BulkEvaluator) X(index int) float64 {
	s := &e.sources[index]
	if s.spline == nil {
		return 0
	}
	return s.spline.RangeX(s.segment).Start() + e.cubicXs[index]
}

// CubicX returns the offset of a slot into its active segment.
func (e *BulkEvaluator) CubicX(index int) float64 {
	return e.cubicXs[index]
}

// CubicXEnd returns the width of a slot's active segment.
func (e *BulkEvaluator) CubicXEnd(index int) float64 {
	return e.cubicXEnds[index]
}

// Cubic returns a copy of the cubic a slot is interpolating.
func (e *BulkEvaluator) Cubic(index int) curve.Cubic {
	return curve.CubicFromCoeffs(
		e.coeffs[0][index], e.coeffs[1][index],
		e.coeffs[2][index], e.coeffs[3][index],
	)
}

// Segment returns the segment a slot has loaded.
func (e *BulkEvaluator) Segment(index int) curve.SegmentIndex {
	return e.sources[index].segment
}

// Spline returns the curve a slot plays, or nil.
func (e *BulkEvaluator) Spline(index int) Spline {
	return e.sources[index].spline
}

// YRange returns a slot's output interval and modular flag.
func (e *BulkEvaluator) YRange(index int) (curve.Range, bool) {
	r := e.yRanges[index]
	return r.validY, r.modular
}

// Repeat reports whether a slot loops.
func (e *BulkEvaluator) Repeat(index int) bool {
	return e.sources[index].repeat
}

func (e *BulkEvaluator) storeCubic(index int, c *curve.Cubic) {
	for i := range e.coeffs {
		e.coeffs[i][index] = c.Coeff(i)
	}
}

func (e *BulkEvaluator) checkLengths() {
	n := len(e.sources)
	assertf(len(e.yRanges) == n && len(e.cubicXs) == n && len(e.cubicXEnds) == n &&
		len(e.ys) == n && len(e.scratch) == n,
		"slot arrays out of step (n=%d)", n)
	for c := range e.coeffs {
		assertf(len(e.coeffs[c]) == n, "coefficient column %d has %d slots, want %d", c, len(e.coeffs[c]), n)
	}
}
