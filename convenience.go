package bulkspline

import (
	"fmt"

	"github.com/tphakala/go-bulk-spline/internal/curve"
	"github.com/tphakala/go-bulk-spline/internal/engine"
	"github.com/tphakala/go-bulk-spline/internal/spline"
)

// Types shared with the internal packages.
type (
	// Range is a closed interval [start, end].
	Range = curve.Range

	// Cubic is the polynomial a slot interpolates within one segment.
	Cubic = curve.Cubic

	// SegmentIndex identifies a segment of a spline, or one of the sentinels.
	SegmentIndex = curve.SegmentIndex

	// Spline is the curve contract consumed by the evaluator.
	Spline = engine.Spline

	// Playback selects a curve, a start position and looping for a slot.
	Playback = engine.Playback

	// Optimization selects the hot-loop implementation.
	Optimization = engine.Optimization

	// Node is one knot of a Hermite spline.
	Node = spline.Node

	// Fit is a method for deriving node slopes from keyframes.
	Fit = spline.Fit
)

// Optimization modes.
const (
	OptimizationAuto   = engine.OptimizationAuto
	OptimizationScalar = engine.OptimizationScalar
	OptimizationVector = engine.OptimizationVector
)

// Segment sentinels.
const (
	SegmentNone        = curve.SegmentNone
	SegmentBeforeStart = curve.SegmentBeforeStart
	SegmentAfterEnd    = curve.SegmentAfterEnd
)

// Keyframe fitting methods.
const (
	FitAkima          = spline.FitAkima
	FitFritschButland = spline.FitFritschButland
	FitNatural        = spline.FitNatural
	FitCatmullRom     = spline.FitCatmullRom
	FitFlat           = spline.FitFlat
)

// ErrInvalidNodes indicates nodes or keyframes that cannot form a spline.
var ErrInvalidNodes = spline.ErrInvalidNodes

// NewRange returns the interval [start, end].
func NewRange(start, end float64) Range {
	return curve.NewRange(start, end)
}

// NewSpline builds a spline from explicit Hermite nodes.
func NewSpline(nodes []Node) (*spline.Spline, error) {
	return spline.New(nodes)
}

// FromKeyframes builds a spline through (xs[i], ys[i]) with slopes chosen by fit.
func FromKeyframes(xs, ys []float64, fit Fit) (*spline.Spline, error) {
	return spline.FromKeyframes(xs, ys, fit)
}

// ParseFit parses a fitting method name such as "akima" or "catmull-rom".
func ParseFit(s string) (Fit, error) {
	return spline.ParseFit(s)
}

// ParseOptimization parses "auto", "scalar" or "vector".
func ParseOptimization(s string) (Optimization, error) {
	return engine.ParseOptimization(s)
}

// SampleCurve is a convenience function for one-shot playback of a single
// curve. It returns frames samples taken deltaX apart, the first one after
// the first advance.
func SampleCurve(a Assignment, deltaX float64, frames int) ([]float64, error) {
	tracks, err := SampleCurves([]Assignment{a}, deltaX, frames, &Config{})
	if err != nil {
		return nil, err
	}
	return tracks[0], nil
}

// SampleCurves plays every assignment in one evaluator and returns one
// track of frames samples per assignment. config.NumIndices is ignored;
// a nil config uses the defaults.
func SampleCurves(assignments []Assignment, deltaX float64, frames int, config *Config) ([][]float64, error) {
	if frames < 0 {
		return nil, fmt.Errorf("%w: frames must not be negative", ErrInvalidConfig)
	}

	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	cfg.NumIndices = 0

	e, err := New(&cfg)
	if err != nil {
		return nil, err
	}

	for i, a := range assignments {
		if _, err := e.Append(a); err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i, err)
		}
	}

	tracks := make([][]float64, len(assignments))
	for i := range tracks {
		tracks[i] = make([]float64, frames)
	}

	for f := range frames {
		e.AdvanceFrame(deltaX)
		for i, y := range e.Ys() {
			tracks[i][f] = y
		}
	}

	return tracks, nil
}

// Interleave merges equal-rate tracks into one frame-major slice:
// [t0[0], t1[0], ..., t0[1], t1[1], ...]. Tracks are cut to the shortest.
func Interleave(tracks [][]float64) []float64 {
	if len(tracks) == 0 {
		return nil
	}
	frames := len(tracks[0])
	for _, t := range tracks[1:] {
		frames = min(frames, len(t))
	}

	channels := len(tracks)
	result := make([]float64, frames*channels)
	for f := range frames {
		for ch, t := range tracks {
			result[f*channels+ch] = t[f]
		}
	}
	return result
}

// Deinterleave splits a frame-major slice into channels tracks.
func Deinterleave(interleaved []float64, channels int) [][]float64 {
	if channels <= 0 {
		return nil
	}
	frames := len(interleaved) / channels
	tracks := make([][]float64, channels)
	for ch := range tracks {
		tracks[ch] = make([]float64, frames)
		for f := range frames {
			tracks[ch][f] = interleaved[f*channels+ch]
		}
	}
	return tracks
}
