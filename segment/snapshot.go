package segment

import (
	"encoding/json"
	"fmt"
	"sort"
)

// snapshot is the JSON save-file shape. Only the topology is persisted;
// routing graphs and congestion state are derived and always rebuilt.
type snapshot struct {
	Version  uint64    `json:"version"`
	Nodes    []Node    `json:"nodes"`
	Segments []Segment `json:"segments"`
}

// Snapshot serializes the store to JSON.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{Version: s.version}
	snap.Nodes = make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, copyNode(n))
	}
	snap.Segments = make([]Segment, 0, len(s.segments))
	for _, seg := range s.segments {
		snap.Segments = append(snap.Segments, *seg)
	}
	// Map order is random; the accessors sort, the codec must too so
	// that identical stores produce identical bytes.
	sortNodes(snap.Nodes)
	sortSegments(snap.Segments)
	return json.Marshal(snap)
}

// Restore builds a Store from Snapshot output. ID counters are rebuilt
// from the loaded data and the persisted topology version is kept, so a
// consumer holding version v still observes staleness correctly after a
// load.
func Restore(data []byte, opts StoreOptions) (*Store, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("segment: decode snapshot: %w", err)
	}

	s := NewStore(opts)
	s.version = snap.Version
	for i := range snap.Nodes {
		n := copyNode(&snap.Nodes[i])
		s.nodes[n.ID] = &n
		if n.ID >= s.nextNodeID {
			s.nextNodeID = n.ID + 1
		}
	}
	for i := range snap.Segments {
		seg := snap.Segments[i]
		if _, ok := s.nodes[seg.Start]; !ok {
			return nil, fmt.Errorf("segment: snapshot segment %d: %w: id %d", seg.ID, ErrNodeNotFound, seg.Start)
		}
		if _, ok := s.nodes[seg.End]; !ok {
			return nil, fmt.Errorf("segment: snapshot segment %d: %w: id %d", seg.ID, ErrNodeNotFound, seg.End)
		}
		s.segments[seg.ID] = &seg
		if seg.ID >= s.nextSegmentID {
			s.nextSegmentID = seg.ID + 1
		}
	}
	return s, nil
}

func sortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}

func sortSegments(segs []Segment) {
	sort.Slice(segs, func(i, j int) bool { return segs[i].ID < segs[j].ID })
}
