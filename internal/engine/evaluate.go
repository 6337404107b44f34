package engine

import (
	"math"
	"slices"

	"github.com/tphakala/go-bulk-spline/internal/kernels"
)

// EvaluateIndex samples a slot's cubic at its current offset and stores the
// result projected into the slot's output range.
//
// Non-modular slots are clamped. Modular slots are shifted by whole periods
// of the range, and the same shift is folded into the cubic's constant term
// so later samples of the segment land in range without adjustment.
// Slots without a spline read 0.
func (e *BulkEvaluator) EvaluateIndex(index int) {
	if e.sources[index].spline == nil {
		e.ys[index] = 0
		return
	}
	c := e.Cubic(index)
	e.ys[index] = e.normalize(index, c.Evaluate(e.cubicXs[index]))
}

// normalize projects a raw sample of slot index into its output range.
func (e *BulkEvaluator) normalize(index int, y float64) float64 {
	r := &e.yRanges[index]
	if !r.modular {
		return r.validY.Clamp(y)
	}

	adj := r.validY.ModularAdjustment(y)
	folded := y + adj
	if !r.validY.Contains(folded) && !math.IsNaN(y) {
		// y is too far out to fold exactly.
		folded = r.validY.Start()
		adj = folded - y
	}
	if adj != 0 && !math.IsInf(adj, 0) && !math.IsNaN(adj) {
		e.coeffs[0][index] += adj
	}
	y = folded

	if debugAssertions {
		assertf(math.IsNaN(y) || r.validY.Contains(y),
			"slot %d: modular sample %g outside %v", index, y, r.validY)
	}
	return y
}

// evaluateCubics refreshes the sample of every slot.
func (e *BulkEvaluator) evaluateCubics() {
	switch {
	case e.verify:
		e.evaluateCubicsVerified()
	case e.optimization == OptimizationVector:
		e.evaluateCubicsLanes(e.kernels)
	default:
		e.evaluateCubicsScalar()
	}
}

func (e *BulkEvaluator) evaluateCubicsScalar() {
	for i := range e.sources {
		e.EvaluateIndex(i)
	}
}

// evaluateCubicsLanes evaluates every cubic in one kernel call and then
// normalizes lane by lane.
func (e *BulkEvaluator) evaluateCubicsLanes(k *kernels.Kernels) {
	k.EvaluateCubics(e.coeffs[0], e.coeffs[1], e.coeffs[2], e.coeffs[3], e.cubicXs, e.ys)
	for i := range e.ys {
		if e.sources[i].spline == nil {
			e.ys[i] = 0
			continue
		}
		e.ys[i] = e.normalize(i, e.ys[i])
	}
}

// evaluateCubicsVerified runs the lane-wise path on a snapshot, then the
// per-slot reference path for real, and requires identical samples and
// constant terms.
func (e *BulkEvaluator) evaluateCubicsVerified() {
	ys := slices.Clone(e.ys)
	c0 := slices.Clone(e.coeffs[0])

	e.evaluateCubicsLanes(kernels.Vector())
	laneYs := slices.Clone(e.ys)
	laneC0 := slices.Clone(e.coeffs[0])

	copy(e.ys, ys)
	copy(e.coeffs[0], c0)
	e.evaluateCubicsScalar()

	for i := range e.ys {
		if !sameBits(e.ys[i], laneYs[i]) {
			e.fail("evaluate cubics: sample mismatch", "index", i, "scalar", e.ys[i], "vector", laneYs[i])
		}
		if !sameBits(e.coeffs[0][i], laneC0[i]) {
			e.fail("evaluate cubics: constant term mismatch", "index", i, "scalar", e.coeffs[0][i], "vector", laneC0[i])
		}
	}
}

// sameBits compares two floats by representation, so NaN equals NaN and
// 0 differs from -0.
func sameBits(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
