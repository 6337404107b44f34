// Package curve provides the numeric primitives shared by splines and the
// bulk evaluator: closed intervals, Hermite cubics and segment identifiers.
package curve

import (
	"fmt"
	"math"
)

// maxWildAdjustIterations bounds the period fix-up loop in ModularAdjustment.
// One step is enough unless the period count was rounded.
const maxWildAdjustIterations = 4

// Range is the closed interval [start, end].
type Range struct {
	start float64
	end   float64
}

// NewRange returns the interval [start, end].
func NewRange(start, end float64) Range {
	return Range{start: start, end: end}
}

// Start returns the lower bound.
func (r Range) Start() float64 { return r.start }

// End returns the upper bound.
func (r Range) End() float64 { return r.end }

// Length returns end - start.
func (r Range) Length() float64 { return r.end - r.start }

// Middle returns the midpoint.
func (r Range) Middle() float64 { return (r.start + r.end) / 2 }

// Valid reports whether start <= end and neither bound is NaN.
func (r Range) Valid() bool { return r.start <= r.end }

// Contains reports whether x lies in the closed interval.
func (r Range) Contains(x float64) bool { return r.start <= x && x <= r.end }

// Clamp saturates x to the interval bounds. NaN is returned unchanged.
func (r Range) Clamp(x float64) float64 {
	if x < r.start {
		return r.start
	}
	if x > r.end {
		return r.end
	}
	return x
}

// Lerp maps t in [0, 1] onto the interval.
func (r Range) Lerp(t float64) float64 {
	return r.start + t*r.Length()
}

// Percent is the inverse of Lerp.
func (r Range) Percent(x float64) float64 {
	length := r.Length()
	if length == 0 {
		return 0
	}
	return (x - r.start) / length
}

// ModularAdjustment returns the amount that must be added to x to bring it
// into the interval, treating the interval as one period of a wrapping
// quantity (angles, phases). Values less than one period outside the
// interval take the fast path; anything further is folded by a whole number
// of periods.
//
// For a positive length, Contains(x + adj) holds whenever the spacing of
// floats around x is finer than the interval. Beyond that no adjustment can
// land x + adj inside, and the result is start - x; Normalize handles that
// case. A zero-length interval degrades to clamping.
func (r Range) ModularAdjustment(x float64) float64 {
	length := r.Length()
	if length <= 0 {
		return r.Clamp(x) - x
	}

	var adj float64
	switch {
	case x < r.start:
		adj = length
	case x >= r.end:
		adj = -length
	}
	if r.Contains(x + adj) {
		return adj
	}

	adj = -math.Floor((x-r.start)/length) * length
	for range maxWildAdjustIterations {
		switch {
		case x+adj < r.start:
			adj += length
		case x+adj > r.end:
			adj -= length
		default:
			return adj
		}
	}
	if r.Contains(x + adj) {
		return adj
	}
	return r.start - x
}

// Normalize returns x + ModularAdjustment(x). A finite x too large to fold
// exactly normalizes to start. NaN stays NaN.
func (r Range) Normalize(x float64) float64 {
	y := x + r.ModularAdjustment(x)
	if !r.Contains(y) && !math.IsNaN(x) {
		return r.start
	}
	return y
}

// NormalizeWildValue folds an arbitrarily distant x into the interval.
// It is an alias of Normalize kept for call sites that want to stress that
// x may be many periods away.
func (r Range) NormalizeWildValue(x float64) float64 {
	return r.Normalize(x)
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.start, r.end)
}
