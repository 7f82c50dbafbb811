package csr

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/roadnet/segment"
)

// ErrMalformedGraph indicates the post-build consistency check failed.
// A graph carrying this error must not serve queries.
var ErrMalformedGraph = errors.New("csr: malformed graph")

// Graph is an immutable CSR snapshot of the road network at a single
// topology version. All slices are index-aligned: edge e runs from the
// node owning the offset range to Targets[e]. Indices are only
// meaningful within this snapshot's Version.
type Graph struct {
	// Version is the segment.Store topology version this graph was
	// built from.
	Version uint64

	// NodeIDs maps dense node index → store node id.
	NodeIDs []segment.NodeID
	// Positions holds the world position of each dense node.
	Positions []segment.Point

	// Offsets has length NodeCount()+1; edges of node i occupy
	// Targets[Offsets[i]:Offsets[i+1]].
	Offsets []int32
	// Targets holds the dense index of each edge's head node.
	Targets []int32
	// FreeFlow is the zero-congestion traversal cost per edge, in
	// seconds: arc length / class speed.
	FreeFlow []float64
	// Capacity is the edge throughput in vehicle-equivalents per hour.
	Capacity []float64
	// EdgeSegment is the underlying segment of each directed edge.
	EdgeSegment []segment.SegmentID
	// EdgeClass is the road class of each directed edge.
	EdgeClass []segment.Class
	// EdgeForward reports whether the edge runs start→end (true) or
	// end→start (false) along its segment's curve.
	EdgeForward []bool

	index map[segment.NodeID]int32
}

// NodeCount returns the number of dense nodes.
func (g *Graph) NodeCount() int { return len(g.NodeIDs) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int { return len(g.Targets) }

// Neighbors returns the half-open edge index range [from, to) for the
// dense node i.
func (g *Graph) Neighbors(i int32) (from, to int32) {
	return g.Offsets[i], g.Offsets[i+1]
}

// IndexOf returns the dense index of a store node id.
func (g *Graph) IndexOf(id segment.NodeID) (int32, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Build constructs a CSR snapshot from the store's current topology.
// Construction is deterministic: an unchanged topology yields identical
// arrays. The store version is read first, so a concurrent mutation
// lands the graph on the older version and the next query batch rebuilds.
func Build(store *segment.Store) (*Graph, error) {
	version := store.Version()
	nodes := store.Nodes()
	segs := store.Segments()

	// Dense indices in a stable spatial order.
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		if a.Position.X != b.Position.X {
			return a.Position.X < b.Position.X
		}
		return a.ID < b.ID
	})

	index := make(map[segment.NodeID]int32, len(nodes))
	for i, n := range nodes {
		index[n.ID] = int32(i)
	}

	type edge struct {
		from, to int32
		seg      segment.SegmentID
		class    segment.Class
		cost     float64
		cap      float64
		forward  bool
	}
	edges := make([]edge, 0, 2*len(segs))
	for _, s := range segs {
		from, okF := index[s.Start]
		to, okT := index[s.End]
		if !okF || !okT {
			return nil, fmt.Errorf("%w: segment %d references unindexed node", ErrMalformedGraph, s.ID)
		}
		cost := s.Length / s.Class.Speed()
		cap := s.Class.Capacity()
		edges = append(edges, edge{from, to, s.ID, s.Class, cost, cap, true})
		if !s.Class.IsOneWay() {
			edges = append(edges, edge{to, from, s.ID, s.Class, cost, cap, false})
		}
	}

	// Bucket by source node; within a bucket order by (target, segment)
	// so rebuilds are byte-identical.
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.from != b.from {
			return a.from < b.from
		}
		if a.to != b.to {
			return a.to < b.to
		}
		return a.seg < b.seg
	})

	g := &Graph{
		Version:     version,
		NodeIDs:     make([]segment.NodeID, len(nodes)),
		Positions:   make([]segment.Point, len(nodes)),
		Offsets:     make([]int32, len(nodes)+1),
		Targets:     make([]int32, len(edges)),
		FreeFlow:    make([]float64, len(edges)),
		Capacity:    make([]float64, len(edges)),
		EdgeSegment: make([]segment.SegmentID, len(edges)),
		EdgeClass:   make([]segment.Class, len(edges)),
		EdgeForward: make([]bool, len(edges)),
		index:       index,
	}
	for i, n := range nodes {
		g.NodeIDs[i] = n.ID
		g.Positions[i] = n.Position
	}
	cursor := 0
	for i := range nodes {
		g.Offsets[i] = int32(cursor)
		for cursor < len(edges) && edges[cursor].from == int32(i) {
			g.Targets[cursor] = edges[cursor].to
			g.FreeFlow[cursor] = edges[cursor].cost
			g.Capacity[cursor] = edges[cursor].cap
			g.EdgeSegment[cursor] = edges[cursor].seg
			g.EdgeClass[cursor] = edges[cursor].class
			g.EdgeForward[cursor] = edges[cursor].forward
			cursor++
		}
	}
	g.Offsets[len(nodes)] = int32(cursor)

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// validate runs structural consistency checks after a build.
func (g *Graph) validate() error {
	n := len(g.NodeIDs)
	if len(g.Offsets) != n+1 {
		return fmt.Errorf("%w: offsets length %d for %d nodes", ErrMalformedGraph, len(g.Offsets), n)
	}
	if g.Offsets[0] != 0 || int(g.Offsets[n]) != len(g.Targets) {
		return fmt.Errorf("%w: offset bounds [%d,%d] for %d edges",
			ErrMalformedGraph, g.Offsets[0], g.Offsets[n], len(g.Targets))
	}
	for i := 0; i < n; i++ {
		if g.Offsets[i] > g.Offsets[i+1] {
			return fmt.Errorf("%w: offsets not monotonic at node %d", ErrMalformedGraph, i)
		}
	}
	for e, t := range g.Targets {
		if int(t) < 0 || int(t) >= n {
			return fmt.Errorf("%w: edge %d targets node %d of %d", ErrMalformedGraph, e, t, n)
		}
		if g.FreeFlow[e] <= 0 {
			return fmt.Errorf("%w: edge %d has non-positive free-flow cost", ErrMalformedGraph, e)
		}
	}
	return nil
}
