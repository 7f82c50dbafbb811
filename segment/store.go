package segment

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Store is the authoritative road-network topology. All methods are safe
// for concurrent use; mutations are serialized under an internal lock.
//
// The Store is the only structure a save file persists. Everything
// derived from it (routing graphs, congestion state) is rebuilt from the
// topology version it reports.
type Store struct {
	mu sync.RWMutex

	opts StoreOptions

	nodes    map[NodeID]*Node
	segments map[SegmentID]*Segment

	nextNodeID    NodeID
	nextSegmentID SegmentID

	// version increments on every successful mutation, never decreases.
	version uint64
}

// NewStore creates an empty Store with the given options.
func NewStore(opts StoreOptions) *Store {
	return &Store{
		opts:     opts,
		nodes:    make(map[NodeID]*Node),
		segments: make(map[SegmentID]*Segment),
	}
}

// Version returns the current topology version. It advances by exactly
// one per successful AddSegment or RemoveSegment.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// AddSegment validates and inserts a curved segment, snapping each
// endpoint to an existing node within SnapTolerance (nearest node wins;
// ties break to the lowest node id) or creating a new node.
//
// On any validation failure the store is left untouched and the returned
// error wraps ErrGeometry.
func (s *Store) AddSegment(curve Curve, class Class) (SegmentID, error) {
	length := curve.ArcLength()

	// All validation happens before the first mutation.
	if length < s.opts.MinLength {
		return 0, fmt.Errorf("%w: %w: arc length %.2f < min %.2f",
			ErrGeometry, ErrDegenerateCurve, length, s.opts.MinLength)
	}
	if !s.opts.Bounds.Contains(curve.P0) || !s.opts.Bounds.Contains(curve.P3) {
		return 0, fmt.Errorf("%w: %w: endpoints %v, %v outside %v",
			ErrGeometry, ErrOutOfBounds, curve.P0, curve.P3, s.opts.Bounds)
	}
	if curve.selfIntersects() {
		return 0, fmt.Errorf("%w: %w", ErrGeometry, ErrSelfIntersect)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.findOrCreateNode(curve.P0)
	end := s.findOrCreateNode(curve.P3)

	id := s.nextSegmentID
	s.nextSegmentID++

	seg := &Segment{
		ID:     id,
		Start:  start,
		End:    end,
		Curve:  curve,
		Class:  class,
		Length: length,
	}
	s.segments[id] = seg
	s.nodes[start].Segments = append(s.nodes[start].Segments, id)
	if end != start {
		s.nodes[end].Segments = append(s.nodes[end].Segments, id)
	}

	s.version++
	return id, nil
}

// RemoveSegment deletes a segment. Endpoint nodes whose degree drops to
// zero are pruned. Returns ErrSegmentNotFound for unknown ids.
func (s *Store) RemoveSegment(id SegmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrSegmentNotFound, id)
	}
	delete(s.segments, id)

	for _, nid := range []NodeID{seg.Start, seg.End} {
		node, ok := s.nodes[nid]
		if !ok {
			continue // loop segment already handled via Start
		}
		kept := node.Segments[:0]
		for _, sid := range node.Segments {
			if sid != id {
				kept = append(kept, sid)
			}
		}
		node.Segments = kept
		if len(node.Segments) == 0 {
			delete(s.nodes, nid)
		}
	}

	s.version++
	return nil
}

// findOrCreateNode returns the nearest existing node within
// SnapTolerance of pos, or allocates a new one. Caller holds s.mu.
func (s *Store) findOrCreateNode(pos Point) NodeID {
	bestID := NodeID(0)
	bestDist := math.Inf(1)
	found := false
	for id, node := range s.nodes {
		d := node.Position.Dist(pos)
		if d >= s.opts.SnapTolerance {
			continue
		}
		// Nearest wins; exact ties go to the lowest id so that snapping
		// is deterministic regardless of map iteration order.
		if d < bestDist || (d == bestDist && id < bestID) {
			bestDist = d
			bestID = id
			found = true
		}
	}
	if found {
		return bestID
	}

	id := s.nextNodeID
	s.nextNodeID++
	s.nodes[id] = &Node{ID: id, Position: pos}
	return id
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id NodeID) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	return copyNode(node), nil
}

// Segment returns a copy of the segment with the given id.
func (s *Store) Segment(id SegmentID) (Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.segments[id]
	if !ok {
		return Segment{}, fmt.Errorf("%w: id %d", ErrSegmentNotFound, id)
	}
	return *seg, nil
}

// Nodes returns copies of all nodes, sorted by id.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		out = append(out, copyNode(node))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Segments returns copies of all segments, sorted by id.
func (s *Store) Segments() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Segment, 0, len(s.segments))
	for _, seg := range s.segments {
		out = append(out, *seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeCount returns the number of junction nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// SegmentCount returns the number of segments.
func (s *Store) SegmentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// NearestNode returns the node closest to pos, with no distance limit.
// Returns false on an empty store. Exact ties go to the lowest id.
func (s *Store) NearestNode(pos Point) (NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bestID := NodeID(0)
	bestDist := math.Inf(1)
	found := false
	for id, node := range s.nodes {
		d := node.Position.Dist(pos)
		if d < bestDist || (d == bestDist && id < bestID) {
			bestDist = d
			bestID = id
			found = true
		}
	}
	return bestID, found
}

func copyNode(n *Node) Node {
	out := *n
	out.Segments = append([]SegmentID(nil), n.Segments...)
	return out
}
