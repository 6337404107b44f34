package engine

import (
	"fmt"
	"slices"
	"unsafe"

	"github.com/tphakala/go-bulk-spline/internal/kernels"
)

// indexSize is the width in bytes of one entry of an index list.
const indexSize = int(unsafe.Sizeof(uint32(0)))

// AdvanceFrame moves every slot deltaX further along its curve and refreshes
// every sample. Slots that run off the end of their segment are resolved
// into the next one (or wrapped, or parked after the end) before sampling.
//
// deltaX is meant to be non-negative. A negative deltaX moves slots back
// within their current segment but never resolves an earlier segment.
func (e *BulkEvaluator) AdvanceFrame(deltaX float64) {
	n := e.updateCubicXs(deltaX, e.scratch)

	for _, idx := range e.scratch[:n] {
		index := int(idx)
		if e.sources[index].spline == nil {
			e.cubicXs[index] = 0
			continue
		}

		exhausted := e.sources[index].segment
		e.InitCubic(index, e.exitX(index))

		if debugAssertions {
			assertf(e.sources[index].segment != exhausted || e.sources[index].repeat,
				"slot %d: re-resolved exhausted segment %v", index, exhausted)
			assertf(e.cubicXs[index] <= e.cubicXEnds[index],
				"slot %d: still past its segment after resolution (%g > %g, segment %v)",
				index, e.cubicXs[index], e.cubicXEnds[index], e.sources[index].segment)
		}
	}

	e.evaluateCubics()
}

// exitX is the absolute position of a slot that has run off its segment.
// It is never earlier than the segment end, so rounding in start+offset
// cannot resolve the exhausted segment again.
func (e *BulkEvaluator) exitX(index int) float64 {
	s := &e.sources[index]
	r := s.spline.RangeX(s.segment)
	return max(r.Start()+e.cubicXs[index], r.End())
}

// UpdateCubicXsOneStep adds deltaX to every offset and appends to indices,
// in slot order, each slot whose offset now exceeds its segment width.
// indices must hold at least NumIndices entries. Returns the count written.
func (e *BulkEvaluator) UpdateCubicXsOneStep(deltaX float64, indices []uint32) int {
	e.checkIndexCapacity(indices)
	return kernels.AdvanceAndCompact(deltaX, e.cubicXEnds, e.cubicXs, indices)
}

// UpdateCubicXsTwoSteps has the same result as UpdateCubicXsOneStep but
// first writes a byte mask over all slots with the configured kernel, then
// compacts the mask.
//
// The mask is stored in the last NumIndices bytes of indices' own memory, so
// no extra buffer is needed. Compaction reads mask byte i before it writes
// index entry n <= i, and that entry ends below the mask byte of slot i+1.
func (e *BulkEvaluator) UpdateCubicXsTwoSteps(deltaX float64, indices []uint32) int {
	return e.updateTwoSteps(e.kernels, deltaX, indices)
}

func (e *BulkEvaluator) updateTwoSteps(k *kernels.Kernels, deltaX float64, indices []uint32) int {
	e.checkIndexCapacity(indices)
	n := e.NumIndices()
	indices = indices[:n]
	mask := maskView(indices)

	k.AdvanceAndMask(deltaX, e.cubicXEnds, e.cubicXs, mask)
	return kernels.ConvertMaskToIndices(mask, indices)
}

// maskView returns the last len(indices) bytes of indices' memory.
func maskView(indices []uint32) []uint8 {
	n := len(indices)
	if n == 0 {
		return nil
	}
	raw := unsafe.Slice((*uint8)(unsafe.Pointer(unsafe.SliceData(indices))), n*indexSize)
	return raw[len(raw)-n:]
}

// updateCubicXs dispatches to the compaction strategy of the configured mode.
func (e *BulkEvaluator) updateCubicXs(deltaX float64, indices []uint32) int {
	switch {
	case e.verify:
		return e.updateCubicXsVerified(deltaX, indices)
	case e.optimization == OptimizationVector:
		return e.UpdateCubicXsTwoSteps(deltaX, indices)
	default:
		return e.UpdateCubicXsOneStep(deltaX, indices)
	}
}

// updateCubicXsVerified runs the one-step strategy on a copy of the offsets
// and the two-step strategy with the vector kernel for real, and requires
// identical offsets and index lists.
func (e *BulkEvaluator) updateCubicXsVerified(deltaX float64, indices []uint32) int {
	n := e.NumIndices()
	xs := slices.Clone(e.cubicXs)
	want := make([]uint32, n)
	numWant := kernels.AdvanceAndCompact(deltaX, e.cubicXEnds, xs, want)

	got := e.updateTwoSteps(kernels.Vector(), deltaX, indices)

	if got != numWant {
		e.fail("update cubic xs: count mismatch", "one_step", numWant, "two_steps", got)
	}
	for i := range got {
		if indices[i] != want[i] {
			e.fail("update cubic xs: index mismatch", "position", i, "one_step", want[i], "two_steps", indices[i])
		}
	}
	for i := range n {
		if !sameBits(xs[i], e.cubicXs[i]) {
			e.fail("update cubic xs: offset mismatch", "index", i, "one_step", xs[i], "two_steps", e.cubicXs[i])
		}
	}
	return got
}

func (e *BulkEvaluator) checkIndexCapacity(indices []uint32) {
	if debugAssertions {
		assertf(len(indices) >= e.NumIndices(),
			"index buffer holds %d entries, need %d", len(indices), e.NumIndices())
	}
}

// fail reports a divergence between two implementations that must agree
// bit for bit. It logs and then panics: the evaluator state is no longer
// trustworthy.
func (e *BulkEvaluator) fail(msg string, args ...any) {
	e.logger.Error(msg, args...)
	panic(fmt.Sprintf("bulkspline: verification failed: %s %v", msg, args))
}
