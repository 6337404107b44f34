package engine

import (
	"math"

	"github.com/tphakala/go-bulk-spline/internal/curve"
)

// InitCubic positions a slot at the absolute input position x: it finds the
// segment containing x, loads its cubic and sets the offset and width of
// the segment. Looping slots that run off either end are folded back into
// the curve by whole periods.
//
// When x resolves to the segment already loaded the call does nothing,
// unless x had to be folded, in which case the slot is repositioned inside
// the same segment. Slots without a spline are skipped.
//
// For modular slots the cubic's constant term is normalized into the
// output range so the first sample of the segment needs no adjustment.
func (e *BulkEvaluator) InitCubic(index int, x float64) {
	s := &e.sources[index]
	if s.spline == nil {
		return
	}

	seg := s.spline.IndexForX(x, s.segment.Next())
	wrapped := false
	if s.repeat && !seg.Valid() {
		x, seg = wrap(s.spline, x)
		wrapped = true
	}

	if seg == s.segment && !wrapped {
		return
	}

	r := s.spline.RangeX(seg)
	if x < r.Start() {
		// Only reachable for SegmentBeforeStart, whose cubic is flat.
		x = r.Start()
	}

	s.segment = seg
	e.cubicXs[index] = x - r.Start()
	e.cubicXEnds[index] = r.Length()

	c := curve.NewCubic(s.spline.CreateCubicInit(seg))
	if yr := &e.yRanges[index]; yr.modular {
		c0 := c.Coeff(0)
		c.SetCoeff(0, c0+yr.validY.ModularAdjustment(c0))
	}
	e.storeCubic(index, &c)

	if debugAssertions {
		assertf(e.cubicXs[index] >= 0 && e.cubicXs[index] <= e.cubicXEnds[index],
			"slot %d: offset %g outside segment %v of width %g",
			index, e.cubicXs[index], seg, e.cubicXEnds[index])
	}
}

// wrap folds x into [StartX, StartX+LengthX) and resolves it. If rounding
// still lands the folded value on the end of the curve, playback restarts
// from the first node.
func wrap(sp Spline, x float64) (float64, curve.SegmentIndex) {
	start, length := sp.StartX(), sp.LengthX()
	if length > 0 && !math.IsInf(x, 0) && !math.IsNaN(x) {
		offset := math.Mod(x-start, length)
		if offset < 0 {
			offset += length
		}
		x = start + offset
	} else {
		x = start
	}

	seg := sp.IndexForX(x, curve.SegmentNone)
	if !seg.Valid() {
		x = start
		seg = sp.IndexForX(x, curve.SegmentNone)
	}
	return x, seg
}
