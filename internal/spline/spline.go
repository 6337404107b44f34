// Package spline implements an immutable piecewise-cubic Hermite spline
// that satisfies the evaluator's curve contract: segment lookup with a
// search hint, per-segment input ranges and cubic construction data.
package spline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tphakala/go-bulk-spline/internal/curve"
)

// minNodes is the smallest node count that defines one segment.
const minNodes = 2

// ErrInvalidNodes indicates nodes that cannot form a spline.
var ErrInvalidNodes = errors.New("invalid spline nodes")

// Node is one knot of the spline: position, value and slope.
type Node struct {
	X          float64
	Y          float64
	Derivative float64
}

// Spline is an ordered list of Hermite nodes. Segment i spans
// [nodes[i].X, nodes[i+1].X). A Spline is never modified after creation,
// so it can be shared by any number of evaluator slots.
type Spline struct {
	nodes []Node
}

// New validates nodes and returns a spline that owns a copy of them.
func New(nodes []Node) (*Spline, error) {
	if len(nodes) < minNodes {
		return nil, fmt.Errorf("%w: need at least %d nodes, got %d", ErrInvalidNodes, minNodes, len(nodes))
	}

	for i, n := range nodes {
		if !isFinite(n.X) || !isFinite(n.Y) || !isFinite(n.Derivative) {
			return nil, fmt.Errorf("%w: node %d is not finite", ErrInvalidNodes, i)
		}
		if i > 0 && n.X <= nodes[i-1].X {
			return nil, fmt.Errorf("%w: x must be strictly increasing (node %d: %g <= %g)",
				ErrInvalidNodes, i, n.X, nodes[i-1].X)
		}
	}

	owned := make([]Node, len(nodes))
	copy(owned, nodes)
	return &Spline{nodes: owned}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NumNodes returns the node count.
func (s *Spline) NumNodes() int { return len(s.nodes) }

// NumSegments returns the number of real segments.
func (s *Spline) NumSegments() int { return len(s.nodes) - 1 }

// Nodes returns a copy of the nodes.
func (s *Spline) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// StartX returns the x of the first node.
func (s *Spline) StartX() float64 { return s.nodes[0].X }

// EndX returns the x of the last node.
func (s *Spline) EndX() float64 { return s.nodes[len(s.nodes)-1].X }

// LengthX returns EndX - StartX, the period used by looping playback.
func (s *Spline) LengthX() float64 { return s.EndX() - s.StartX() }

// StartY returns the value held before the first node.
func (s *Spline) StartY() float64 { return s.nodes[0].Y }

// EndY returns the value held at and after the last node.
func (s *Spline) EndY() float64 { return s.nodes[len(s.nodes)-1].Y }

// IndexForX returns the segment containing x. The hint segment and the one
// after it are tried first, which makes monotonically advancing playback
// O(1); otherwise a binary search is used. Hints outside the spline are
// ignored.
//
// Positions before the first node give SegmentBeforeStart; positions at or
// after the last node (and NaN) give SegmentAfterEnd.
func (s *Spline) IndexForX(x float64, hint curve.SegmentIndex) curve.SegmentIndex {
	if x < s.StartX() {
		return curve.SegmentBeforeStart
	}
	if !(x < s.EndX()) {
		return curve.SegmentAfterEnd
	}

	if s.segmentContains(hint, x) {
		return hint
	}
	if s.segmentContains(hint+1, x) {
		return hint + 1
	}

	// First node strictly to the right of x, minus one.
	i := sort.Search(len(s.nodes), func(i int) bool { return s.nodes[i].X > x }) - 1
	return curve.SegmentIndex(i)
}

func (s *Spline) segmentContains(i curve.SegmentIndex, x float64) bool {
	if i < 0 || int(i) >= s.NumSegments() {
		return false
	}
	return s.nodes[i].X <= x && x < s.nodes[i+1].X
}

// RangeX returns the input interval of segment i.
//
// SegmentAfterEnd spans [EndX, +Inf] so a slot parked there never runs off
// its segment. SegmentBeforeStart spans one spline length ending at StartX;
// its cubic is flat, so only the end of that interval matters.
func (s *Spline) RangeX(i curve.SegmentIndex) curve.Range {
	switch {
	case i == curve.SegmentAfterEnd:
		return curve.NewRange(s.EndX(), math.Inf(1))
	case i == curve.SegmentBeforeStart:
		return curve.NewRange(s.StartX()-s.LengthX(), s.StartX())
	case i.Valid() && int(i) < s.NumSegments():
		return curve.NewRange(s.nodes[i].X, s.nodes[i+1].X)
	default:
		return curve.Range{}
	}
}

// CreateCubicInit returns the Hermite end conditions for segment i.
// The sentinels hold the end values flat.
func (s *Spline) CreateCubicInit(i curve.SegmentIndex) curve.CubicInit {
	switch {
	case i == curve.SegmentAfterEnd:
		return flatInit(s.EndY())
	case i == curve.SegmentBeforeStart:
		return flatInit(s.StartY())
	case i.Valid() && int(i) < s.NumSegments():
		n0, n1 := s.nodes[i], s.nodes[i+1]
		return curve.CubicInit{
			StartY:          n0.Y,
			StartDerivative: n0.Derivative,
			EndY:            n1.Y,
			EndDerivative:   n1.Derivative,
			WidthX:          n1.X - n0.X,
		}
	default:
		return curve.CubicInit{}
	}
}

func flatInit(y float64) curve.CubicInit {
	return curve.CubicInit{StartY: y, EndY: y}
}

// Evaluate returns the spline value at x, holding the end values outside
// the domain. It resolves the segment from scratch on every call and is
// meant for one-off queries and as a reference in tests.
func (s *Spline) Evaluate(x float64) float64 {
	i := s.IndexForX(x, curve.SegmentNone)
	if !i.Valid() {
		if i == curve.SegmentBeforeStart {
			return s.StartY()
		}
		return s.EndY()
	}
	c := curve.NewCubic(s.CreateCubicInit(i))
	return c.Evaluate(x - s.nodes[i].X)
}
