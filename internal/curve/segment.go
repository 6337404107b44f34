package curve

import "strconv"

// SegmentIndex identifies a segment of a spline. Non-negative values are
// real segments; negative values are sentinels.
type SegmentIndex int32

// Sentinel segment indices.
const (
	// SegmentNone means no segment is loaded yet.
	SegmentNone SegmentIndex = -1

	// SegmentBeforeStart covers positions before the first node.
	SegmentBeforeStart SegmentIndex = -2

	// SegmentAfterEnd covers positions at or past the last node.
	SegmentAfterEnd SegmentIndex = -3
)

// Valid reports whether s is a real segment rather than a sentinel.
func (s SegmentIndex) Valid() bool { return s >= 0 }

// Next returns the search hint following s. Sentinels restart at segment 0.
func (s SegmentIndex) Next() SegmentIndex {
	if s < 0 {
		return 0
	}
	return s + 1
}

func (s SegmentIndex) String() string {
	switch s {
	case SegmentNone:
		return "none"
	case SegmentBeforeStart:
		return "before-start"
	case SegmentAfterEnd:
		return "after-end"
	default:
		return strconv.Itoa(int(s))
	}
}
