// Package testutil provides reusable test helpers for the bulk spline evaluator tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-bulk-spline/internal/spline"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance   = 1e-10
	ReferenceTolerance = 1e-9
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if !(v >= minVal && v <= maxVal) {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if !(value >= minVal && value <= maxVal) {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}

// AssertMonotonic verifies that a slice is monotonically increasing.
func AssertMonotonic(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return assert.Fail(t, "not monotonic",
				"s[%d]=%f < s[%d]=%f", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// AssertSameBits verifies that two slices hold identical float64 bit patterns.
func AssertSameBits(t *testing.T, expected, actual []float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Len(t, actual, len(expected), msgAndArgs...) {
		return false
	}
	for i := range expected {
		if math.Float64bits(expected[i]) != math.Float64bits(actual[i]) {
			return assert.Fail(t, "bit patterns differ",
				"[%d]: expected %v (%#x), actual %v (%#x)", i,
				expected[i], math.Float64bits(expected[i]), actual[i], math.Float64bits(actual[i]))
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// MustSpline builds a spline from nodes or fails the test.
func MustSpline(t testing.TB, nodes ...spline.Node) *spline.Spline {
	t.Helper()
	s, err := spline.New(nodes)
	require.NoError(t, err)
	return s
}

// MustKeyframes fits a spline through keyframes or fails the test.
func MustKeyframes(t testing.TB, xs, ys []float64, fit spline.Fit) *spline.Spline {
	t.Helper()
	s, err := spline.FromKeyframes(xs, ys, fit)
	require.NoError(t, err)
	return s
}

// Ramp returns a one-segment spline rising linearly from (x0, y0) to (x1, y1).
func Ramp(t testing.TB, x0, y0, x1, y1 float64) *spline.Spline {
	t.Helper()
	slope := (y1 - y0) / (x1 - x0)
	return MustSpline(t,
		spline.Node{X: x0, Y: y0, Derivative: slope},
		spline.Node{X: x1, Y: y1, Derivative: slope},
	)
}
