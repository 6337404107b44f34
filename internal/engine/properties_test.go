package engine

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/interp"

	"github.com/tphakala/go-bulk-spline/internal/curve"
	"github.com/tphakala/go-bulk-spline/internal/spline"
	"github.com/tphakala/go-bulk-spline/internal/testutil"
)

var (
	angleRange   = curve.NewRange(0, 360)
	phaseRange   = curve.NewRange(-math.Pi, math.Pi)
	clampedRange = curve.NewRange(-100, 100)
	allFits      = []spline.Fit{
		spline.FitAkima, spline.FitFritschButland, spline.FitNatural,
		spline.FitCatmullRom, spline.FitFlat,
	}
)

type slotSetup struct {
	spline  *spline.Spline
	startX  float64
	repeat  bool
	yRange  curve.Range
	modular bool
}

// randomSetups describes n slots: a mix of looping and one-shot playback,
// modular and clamped output, and some slots left empty.
func randomSetups(t testing.TB, seed uint64, n int) []slotSetup {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	setups := make([]slotSetup, n)
	for i := range setups {
		switch i % 3 {
		case 0:
			setups[i].yRange, setups[i].modular = angleRange, true
		case 1:
			setups[i].yRange, setups[i].modular = phaseRange, true
		default:
			setups[i].yRange = clampedRange
		}
		if i%7 == 6 {
			continue
		}

		k := 2 + rng.IntN(5)
		xs := make([]float64, k)
		ys := make([]float64, k)
		x := rng.Float64()*4 - 2
		for j := range k {
			xs[j] = x
			ys[j] = rng.NormFloat64() * 200
			x += 0.1 + rng.Float64()*3
		}
		setups[i].spline = testutil.MustKeyframes(t, xs, ys, allFits[rng.IntN(len(allFits))])
		setups[i].startX = xs[0] + (rng.Float64()*1.4-0.2)*(xs[k-1]-xs[0])
		setups[i].repeat = rng.IntN(2) == 0
	}
	return setups
}

func apply(e *BulkEvaluator, setups []slotSetup) {
	e.SetNumIndices(len(setups))
	for i, s := range setups {
		e.SetYRange(i, s.yRange, s.modular)
		if s.spline != nil {
			e.SetSpline(i, Playback{Spline: s.spline, StartX: s.startX, Repeat: s.repeat})
		}
	}
}

func randomDeltas(seed uint64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, ^seed))
	deltas := make([]float64, n)
	for i := range deltas {
		deltas[i] = rng.Float64() * 0.3
		if i%17 == 16 {
			deltas[i] = rng.Float64() * 12
		}
	}
	return deltas
}

func TestCompaction_OneStepMatchesTwoSteps(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 63, 64, 65, 500} {
		setups := randomSetups(t, uint64(n)+100, n)
		one := newEvaluator(OptimizationScalar, false, 0)
		two := newEvaluator(OptimizationVector, false, 0)
		apply(one, setups)
		apply(two, setups)

		for _, delta := range randomDeltas(uint64(n), 20) {
			oneIdx := make([]uint32, n)
			twoIdx := make([]uint32, n)
			numOne := one.UpdateCubicXsOneStep(delta, oneIdx)
			numTwo := two.UpdateCubicXsTwoSteps(delta, twoIdx)

			require.Equal(t, numOne, numTwo, "n=%d delta=%g", n, delta)
			require.Equal(t, oneIdx[:numOne], twoIdx[:numTwo], "n=%d delta=%g", n, delta)
			require.True(t, slices.IsSorted(oneIdx[:numOne]), "indices are listed in slot order")
			testutil.AssertSameBits(t, one.cubicXs, two.cubicXs, "n=%d", n)

			// Keep both evaluators in a valid state for the next round.
			for _, idx := range oneIdx[:numOne] {
				if one.Valid(int(idx)) {
					one.InitCubic(int(idx), one.exitX(int(idx)))
					two.InitCubic(int(idx), two.exitX(int(idx)))
				}
			}
		}
	}
}

func TestCompaction_TwoStepsListsExactlyTheExceedingSlots(t *testing.T) {
	e := newEvaluator(OptimizationVector, false, 0)
	apply(e, randomSetups(t, 7, 200))

	before := slices.Clone(e.cubicXs)
	indices := make([]uint32, e.NumIndices())
	n := e.UpdateCubicXsTwoSteps(0.8, indices)

	var want []uint32
	for i := range before {
		if before[i]+0.8 > e.cubicXEnds[i] {
			want = append(want, uint32(i))
		}
	}
	assert.Equal(t, len(want), n)
	if n > 0 {
		assert.Equal(t, want, indices[:n])
	}
}

func TestAdvanceFrame_AllModesBitIdentical(t *testing.T) {
	const n = 257
	setups := randomSetups(t, 42, n)
	deltas := randomDeltas(43, 300)

	evaluators := make([]*BulkEvaluator, len(allModes))
	for m, mode := range allModes {
		evaluators[m] = newEvaluator(mode.opt, mode.verify, 0)
		apply(evaluators[m], setups)
	}

	for frame, delta := range deltas {
		for _, e := range evaluators {
			e.AdvanceFrame(delta)
		}
		ref := evaluators[0]
		for m, e := range evaluators[1:] {
			if !testutil.AssertSameBits(t, ref.Ys(), e.Ys(), "frame %d mode %s", frame, allModes[m+1].name) {
				return
			}
			if !testutil.AssertSameBits(t, ref.coeffs[0], e.coeffs[0], "frame %d mode %s", frame, allModes[m+1].name) {
				return
			}
		}
	}
}

func TestAdvanceFrame_OutputRangeProperties(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.name, func(t *testing.T) {
			const n = 120
			setups := randomSetups(t, 99, n)
			e := newEvaluator(mode.opt, mode.verify, 0)
			apply(e, setups)

			for _, delta := range randomDeltas(100, 400) {
				e.AdvanceFrame(delta)
				testutil.AssertNoNaNOrInf(t, e.Ys())
				testutil.AssertAllInRange(t, e.Ys(), clampedRange.Start(), angleRange.End())

				for i, s := range setups {
					y := e.Y(i)
					if s.spline == nil {
						require.Zero(t, y)
						continue
					}
					// A modular sample outside its range is a correctness bug.
					require.True(t, s.yRange.Contains(y), "slot %d: %g outside %v", i, y, s.yRange)
					require.LessOrEqual(t, e.CubicX(i), e.CubicXEnd(i), "slot %d", i)

					if !s.modular {
						c := e.Cubic(i)
						raw := c.Evaluate(e.CubicX(i))
						if s.yRange.Contains(raw) {
							require.Equal(t, raw, y, "slot %d: in-range sample was altered", i)
						}
					}
				}
			}
		})
	}
}

func TestAdvanceFrame_MatchesReferenceInterpolator(t *testing.T) {
	xs := []float64{0, 0.5, 1.75, 2, 3.5, 5}
	ys := []float64{1, 4, -2, 0, 3, 2}

	e := newEvaluator(OptimizationAuto, false, len(allFits))
	refs := make([]interp.PiecewiseCubic, len(allFits))
	for i, fit := range allFits {
		s := testutil.MustKeyframes(t, xs, ys, fit)
		e.SetSpline(i, Playback{Spline: s})

		nodes := s.Nodes()
		nx, ny, nd := make([]float64, len(nodes)), make([]float64, len(nodes)), make([]float64, len(nodes))
		for j, node := range nodes {
			nx[j], ny[j], nd[j] = node.X, node.Y, node.Derivative
		}
		refs[i].FitWithDerivatives(nx, ny, nd)
	}

	x := 0.0
	for range 120 {
		e.AdvanceFrame(0.04)
		x += 0.04
		for i := range allFits {
			want := ys[len(ys)-1]
			if x < xs[len(xs)-1] {
				want = refs[i].Predict(x)
			}
			assert.InDelta(t, want, e.Y(i), 1e-9, "fit %v x=%g", allFits[i], x)
		}
	}
}

func TestAdvanceFrame_FritschButlandPlaybackIsMonotone(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 0.1, 5, 5.2, 9}
	s := testutil.MustKeyframes(t, xs, ys, spline.FitFritschButland)

	for _, mode := range allModes {
		t.Run(mode.name, func(t *testing.T) {
			e := newEvaluator(mode.opt, mode.verify, 1)
			e.SetSpline(0, Playback{Spline: s})

			const step = 0.05
			samples := make([]float64, 0, 90)
			for f := 1; f <= cap(samples); f++ {
				e.AdvanceFrame(step)
				samples = append(samples, e.Y(0))
				testutil.AssertRelativeError(t, s.Evaluate(e.X(0)), e.Y(0), testutil.ReferenceTolerance, "frame %d", f)
			}
			testutil.AssertMonotonic(t, samples)
			assert.Equal(t, 9.0, samples[len(samples)-1])
		})
	}
}

func BenchmarkAdvanceFrame(b *testing.B) {
	for _, mode := range allModes[:2] {
		b.Run(mode.name, func(b *testing.B) {
			e := newEvaluator(mode.opt, false, 0)
			apply(e, randomSetups(b, 1, 4096))

			b.ReportAllocs()
			for b.Loop() {
				e.AdvanceFrame(1.0 / 60)
			}
		})
	}
}
