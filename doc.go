// Package bulkspline evaluates many piecewise-cubic curves at once.
//
// An [Evaluator] holds a number of slots. Each slot plays one curve (a
// [Spline]) from a start position, optionally looping, and exposes one
// output sample per frame. All slots advance together: a single
// [Evaluator.AdvanceFrame] call moves every slot by the same input delta,
// re-resolves the slots that ran off their current segment and refreshes
// every sample. Per-slot state lives in parallel arrays rather than one
// record per slot, which keeps the two hot loops (advance-and-compare and
// cubic evaluation) amenable to SIMD.
//
// # Quick Start
//
// For a one-shot render of a few curves:
//
//	s, err := bulkspline.FromKeyframes(
//	    []float64{0, 1, 2}, []float64{0, 10, 0}, bulkspline.FitAkima)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	samples, err := bulkspline.SampleCurve(bulkspline.Assignment{
//	    Playback: bulkspline.Playback{Spline: s, Repeat: true},
//	    YRange:   bulkspline.NewRange(0, 10),
//	}, 1.0/60, 600)
//
// For a long-lived evaluator driven by a game or animation loop:
//
//	e, err := bulkspline.New(&bulkspline.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	heading, _ := e.Append(bulkspline.Assignment{
//	    Playback: bulkspline.Playback{Spline: turn},
//	    YRange:   bulkspline.NewRange(0, 360),
//	    Modular:  true,
//	})
//	for range ticks {
//	    e.AdvanceFrame(dt)
//	    draw(e.Y(heading))
//	}
//
// # Output Ranges
//
// Every slot projects its samples into an output [Range]. A plain range
// clamps. A modular range wraps: a sample of 370 in [0, 360] reads as 10.
// The wrap is folded into the slot's cubic when it happens, so the rest of
// the segment is sampled without any further adjustment and the output
// stays continuous across the wrap point.
//
// # Curve Ends
//
// Before its first node a curve holds its first value, and at or after its
// last node it holds its last value. A looping slot that runs off the end
// is folded back by whole curve lengths, so a delta longer than the curve
// still lands in the right place.
//
// # Optimization Modes
//
//   - [OptimizationScalar]: one pass per frame that advances and collects
//     exhausted slots together, then per-slot evaluation.
//   - [OptimizationVector]: lane-wise advance into a byte mask, mask
//     compaction, then lane-wise evaluation.
//   - [OptimizationAuto]: vector when the CPU has SIMD support.
//
// Both modes produce bit-identical output. [Config.Verify] runs both on
// every frame and panics on any difference.
//
// # Thread Safety
//
// An [Evaluator] must not be used from more than one goroutine at a time.
// Splines are immutable and can be shared freely between evaluators; a
// slot only borrows its spline, which must stay alive while assigned.
//
// # Debug Assertions
//
// Building with -tags bulksplinedebug enables internal consistency checks
// (array lengths, segment offsets, modular postconditions) that panic on
// violation. They are compiled out otherwise.
package bulkspline
