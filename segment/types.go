// Package segment defines core types, options, and sentinel errors for
// the road-topology store.
package segment

import (
	"errors"
	"math"
)

// Sentinel errors for store operations.
var (
	// ErrGeometry is the umbrella error for all rejected segment geometry.
	// Use errors.Is(err, ErrGeometry) to match any geometry failure.
	ErrGeometry = errors.New("segment: invalid geometry")

	// ErrDegenerateCurve indicates a curve shorter than MinLength.
	ErrDegenerateCurve = errors.New("segment: degenerate curve")

	// ErrSelfIntersect indicates a curve whose polyline crosses itself.
	ErrSelfIntersect = errors.New("segment: self-intersecting curve")

	// ErrOutOfBounds indicates a curve endpoint outside the world bounds.
	ErrOutOfBounds = errors.New("segment: endpoint out of bounds")

	// ErrSegmentNotFound indicates an operation referenced an unknown segment.
	ErrSegmentNotFound = errors.New("segment: segment not found")

	// ErrNodeNotFound indicates an operation referenced an unknown node.
	ErrNodeNotFound = errors.New("segment: node not found")
)

// NodeID identifies a junction node. Stable only within a topology version.
type NodeID uint32

// SegmentID identifies a road segment for its whole lifetime.
type SegmentID uint32

// Point is a position in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Len returns the euclidean length of p treated as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

// Rect is an axis-aligned world rectangle, Min inclusive, Max inclusive.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Contains reports whether pt lies inside r.
func (r Rect) Contains(pt Point) bool {
	return pt.X >= r.Min.X && pt.X <= r.Max.X && pt.Y >= r.Min.Y && pt.Y <= r.Max.Y
}

// Node is a junction: a position plus the segments incident to it.
type Node struct {
	ID       NodeID      `json:"id"`
	Position Point       `json:"position"`
	Segments []SegmentID `json:"segments"`
}

// Degree returns the number of incident segments.
func (n *Node) Degree() int { return len(n.Segments) }

// Segment is a curved road between two junction nodes.
type Segment struct {
	ID    SegmentID `json:"id"`
	Start NodeID    `json:"start"`
	End   NodeID    `json:"end"`
	Curve Curve     `json:"curve"`
	Class Class     `json:"class"`

	// Length is the arc length of Curve, computed once at insertion.
	Length float64 `json:"length"`
}

// StoreOptions contains tunable parameters for the Store.
type StoreOptions struct {
	// SnapTolerance is the maximum distance, in world units, at which a
	// segment endpoint reuses an existing node instead of creating one.
	SnapTolerance float64

	// MinLength is the minimum arc length accepted; shorter curves are
	// rejected with ErrDegenerateCurve.
	MinLength float64

	// Bounds limits where segment endpoints may be placed.
	Bounds Rect
}

// DefaultStoreOptions returns a StoreOptions with default settings:
// SnapTolerance=24, MinLength=8, Bounds=[0,0]..[4096,4096].
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{
		SnapTolerance: 24.0,
		MinLength:     8.0,
		Bounds:        Rect{Min: Point{0, 0}, Max: Point{4096, 4096}},
	}
}
