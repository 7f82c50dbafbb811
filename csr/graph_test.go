package csr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/roadnet/csr"
	"github.com/katalvlaran/roadnet/segment"
)

func pt(x, y float64) segment.Point { return segment.Point{X: x, Y: y} }

func line(t *testing.T, s *segment.Store, a, b segment.Point, class segment.Class) segment.SegmentID {
	t.Helper()
	id, err := s.AddSegment(segment.Line(a, b), class)
	require.NoError(t, err)
	return id
}

// TestBuild_Counts verifies the node/edge identities: node count equals
// distinct junction count, edge count is 2 per two-way segment and 1
// per one-way segment.
func TestBuild_Counts(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	line(t, store, pt(100, 100), pt(300, 100), segment.ClassLocal)
	line(t, store, pt(300, 100), pt(500, 100), segment.ClassLocal)
	line(t, store, pt(500, 100), pt(700, 100), segment.ClassOneWay)

	g, err := csr.Build(store)
	require.NoError(t, err)
	require.Equal(t, store.NodeCount(), g.NodeCount())
	require.Equal(t, 2+2+1, g.EdgeCount())
	require.Equal(t, store.Version(), g.Version)
}

// TestBuild_EmptyStore verifies that an empty topology builds a valid
// empty graph rather than failing.
func TestBuild_EmptyStore(t *testing.T) {
	g, err := csr.Build(segment.NewStore(segment.DefaultStoreOptions()))
	require.NoError(t, err)
	require.Equal(t, 0, g.NodeCount())
	require.Equal(t, 0, g.EdgeCount())
}

// TestBuild_Deterministic verifies that rebuilding an unchanged
// topology yields identical arrays.
func TestBuild_Deterministic(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	line(t, store, pt(100, 100), pt(300, 100), segment.ClassLocal)
	line(t, store, pt(300, 100), pt(300, 400), segment.ClassAvenue)
	line(t, store, pt(300, 400), pt(100, 400), segment.ClassBoulevard)

	a, err := csr.Build(store)
	require.NoError(t, err)
	b, err := csr.Build(store)
	require.NoError(t, err)

	require.Equal(t, a.NodeIDs, b.NodeIDs)
	require.Equal(t, a.Positions, b.Positions)
	require.Equal(t, a.Offsets, b.Offsets)
	require.Equal(t, a.Targets, b.Targets)
	require.Equal(t, a.FreeFlow, b.FreeFlow)
	require.Equal(t, a.Capacity, b.Capacity)
	require.Equal(t, a.EdgeSegment, b.EdgeSegment)
	require.Equal(t, a.EdgeForward, b.EdgeForward)
}

// TestBuild_RoundTripIsomorphic verifies that a store serialized,
// restored and rebuilt yields a graph identical to the original.
func TestBuild_RoundTripIsomorphic(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	line(t, store, pt(100, 100), pt(300, 100), segment.ClassLocal)
	line(t, store, pt(300, 100), pt(300, 400), segment.ClassOneWay)
	line(t, store, pt(300, 400), pt(100, 400), segment.ClassHighway)

	before, err := csr.Build(store)
	require.NoError(t, err)

	data, err := store.Snapshot()
	require.NoError(t, err)
	loaded, err := segment.Restore(data, segment.DefaultStoreOptions())
	require.NoError(t, err)

	after, err := csr.Build(loaded)
	require.NoError(t, err)
	require.Equal(t, before.Offsets, after.Offsets)
	require.Equal(t, before.Targets, after.Targets)
	require.Equal(t, before.FreeFlow, after.FreeFlow)
	require.Equal(t, before.Capacity, after.Capacity)
}

// TestBuild_EdgeAttributes verifies free-flow cost and capacity
// derivation from segment length and class.
func TestBuild_EdgeAttributes(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	sid := line(t, store, pt(100, 100), pt(500, 100), segment.ClassLocal)

	g, err := csr.Build(store)
	require.NoError(t, err)
	require.Equal(t, 2, g.EdgeCount())

	seg, err := store.Segment(sid)
	require.NoError(t, err)
	for e := 0; e < g.EdgeCount(); e++ {
		require.InDelta(t, seg.Length/segment.ClassLocal.Speed(), g.FreeFlow[e], 1e-9)
		require.Equal(t, segment.ClassLocal.Capacity(), g.Capacity[e])
		require.Equal(t, sid, g.EdgeSegment[e])
	}
	// The two directions of one segment are distinct edges.
	require.NotEqual(t, g.EdgeForward[0], g.EdgeForward[1])
}

// TestNeighbors walks adjacency of a small Y-junction.
func TestNeighbors(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	line(t, store, pt(300, 100), pt(300, 300), segment.ClassLocal)
	line(t, store, pt(300, 300), pt(100, 500), segment.ClassLocal)
	line(t, store, pt(300, 300), pt(500, 500), segment.ClassLocal)

	g, err := csr.Build(store)
	require.NoError(t, err)

	center, ok := store.NearestNode(pt(300, 300))
	require.True(t, ok)
	i, ok := g.IndexOf(center)
	require.True(t, ok)

	from, to := g.Neighbors(i)
	require.Equal(t, int32(3), to-from, "junction should have three outgoing edges")
}
