package bulkspline

import (
	"unsafe"

	"github.com/tphakala/go-bulk-spline/internal/curve"
)

// Slot limits
const (
	// Slot positions are carried in uint32 index lists during AdvanceFrame.
	maxIndices = 1 << 30
)

// Memory accounting
const (
	bytesPerFloat64 = 8
	bytesPerIndex   = 4

	// Per-slot float64 columns: offset, segment width, sample and the coefficients.
	floatColumns = 3 + curve.NumCoeff

	// Source record (curve reference, segment, repeat) and output range.
	sourceBytes = int64(unsafe.Sizeof(Playback{}))
	rangeBytes  = int64(unsafe.Sizeof(Range{})) + 1

	bytesPerSlot = floatColumns*bytesPerFloat64 + bytesPerIndex + sourceBytes + rangeBytes
)
