package planner_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/roadnet/congestion"
	"github.com/katalvlaran/roadnet/planner"
	"github.com/katalvlaran/roadnet/segment"
)

func pt(x, y float64) segment.Point { return segment.Point{X: x, Y: y} }

// addLine inserts a straight segment and returns its id.
func addLine(t *testing.T, s *segment.Store, a, b segment.Point, class segment.Class) segment.SegmentID {
	t.Helper()
	id, err := s.AddSegment(segment.Line(a, b), class)
	require.NoError(t, err)
	return id
}

// node returns the store node nearest to a position.
func node(t *testing.T, s *segment.Store, p segment.Point) segment.NodeID {
	t.Helper()
	id, ok := s.NearestNode(p)
	require.True(t, ok)
	return id
}

// fastCongestion returns congestion options with smoothing and rate
// limiting effectively disabled, so tests can move the multiplier to
// its BPR target in a single window.
func fastCongestion() congestion.Options {
	opts := congestion.DefaultOptions()
	opts.Alpha = 1
	opts.Window = 1
	opts.MaxDelta = 100
	return opts
}

// observeSegment feeds load onto every directed edge of the given
// segments.
func observeSegment(p *planner.Planner, load float64, segs ...segment.SegmentID) {
	g := p.Graph()
	for e := int32(0); int(e) < g.EdgeCount(); e++ {
		for _, sid := range segs {
			if g.EdgeSegment[e] == sid {
				p.Model().Observe(e, load)
			}
		}
	}
}

// TestTick_SimplePath resolves a two-hop chain at free flow.
func TestTick_SimplePath(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	addLine(t, store, pt(400, 100), pt(700, 100), segment.ClassLocal)

	p, err := planner.New(store, congestion.DefaultOptions(), planner.DefaultOptions())
	require.NoError(t, err)

	a, b := node(t, store, pt(100, 100)), node(t, store, pt(700, 100))
	id := p.Submit(a, b, planner.PriorityNormal)

	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.Equal(t, id, res.ID)
	require.Equal(t, planner.StateResolved, res.State)
	require.Equal(t, a, res.Nodes[0])
	require.Equal(t, b, res.Nodes[len(res.Nodes)-1])
	require.Len(t, res.Edges, 2)
	require.Len(t, res.Waypoints, 3)
	// Free flow: cost is total length over class speed.
	require.InDelta(t, 600/segment.ClassLocal.Speed(), res.Cost, 0.01)
	require.Equal(t, store.Version(), res.Version)
}

// TestTick_NoRoute verifies that a disconnected pair resolves to
// NoRoute without failing the batch.
func TestTick_NoRoute(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	addLine(t, store, pt(100, 900), pt(400, 900), segment.ClassLocal)

	p, err := planner.New(store, congestion.DefaultOptions(), planner.DefaultOptions())
	require.NoError(t, err)

	p.Submit(node(t, store, pt(100, 100)), node(t, store, pt(400, 900)), planner.PriorityNormal)
	p.Submit(node(t, store, pt(100, 100)), node(t, store, pt(400, 100)), planner.PriorityNormal)

	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, planner.StateNoRoute, results[0].State)
	require.Equal(t, planner.StateResolved, results[1].State, "NoRoute must not poison the batch")
}

// TestTick_UnknownNodeIsNoRoute verifies that an id absent from the
// snapshot resolves to NoRoute rather than erroring.
func TestTick_UnknownNodeIsNoRoute(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)

	p, err := planner.New(store, congestion.DefaultOptions(), planner.DefaultOptions())
	require.NoError(t, err)

	p.Submit(node(t, store, pt(100, 100)), segment.NodeID(999), planner.PriorityNormal)
	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, planner.StateNoRoute, results[0].State)
}

// TestTick_BudgetDefersOverflow verifies the hard cap K and that
// overflow is deferred, not dropped.
func TestTick_BudgetDefersOverflow(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	a, b := node(t, store, pt(100, 100)), node(t, store, pt(400, 100))

	opts := planner.DefaultOptions()
	opts.Budget = 2
	p, err := planner.New(store, congestion.DefaultOptions(), opts)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		p.Submit(a, b, planner.PriorityNormal)
	}
	require.Equal(t, 5, p.QueueDepth())

	served := 0
	for tick := 0; tick < 3; tick++ {
		results, err := p.Tick(context.Background())
		require.NoError(t, err)
		require.LessOrEqual(t, len(results), opts.Budget, "tick must never exceed budget K")
		served += len(results)
	}
	require.Equal(t, 5, served, "deferred requests must eventually be served")
	require.Equal(t, 0, p.QueueDepth())
}

// TestTick_EmergencyFirst verifies priority ordering within the budget.
func TestTick_EmergencyFirst(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	a, b := node(t, store, pt(100, 100)), node(t, store, pt(400, 100))

	opts := planner.DefaultOptions()
	opts.Budget = 1
	p, err := planner.New(store, congestion.DefaultOptions(), opts)
	require.NoError(t, err)

	p.Submit(a, b, planner.PriorityNormal)
	p.Submit(a, b, planner.PriorityNormal)
	emergencyID := p.Submit(b, a, planner.PriorityEmergency)

	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, emergencyID, results[0].ID, "emergency must preempt earlier normals")
}

// TestCancel verifies the dequeue-time cancellation flag.
func TestCancel(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	a, b := node(t, store, pt(100, 100)), node(t, store, pt(400, 100))

	p, err := planner.New(store, congestion.DefaultOptions(), planner.DefaultOptions())
	require.NoError(t, err)

	id := p.Submit(a, b, planner.PriorityNormal)
	keep := p.Submit(a, b, planner.PriorityNormal)
	require.True(t, p.Cancel(id))
	require.False(t, p.Cancel(uuid.New()), "unknown ids are not cancellable")

	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, keep, results[0].ID)
}

// TestCheck_InvalidatedAfterTopologyChange walks the boundary property:
// removing the only bridge invalidates resolved paths and turns new
// queries into NoRoute.
func TestCheck_InvalidatedAfterTopologyChange(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	bridge := addLine(t, store, pt(400, 100), pt(700, 100), segment.ClassLocal)
	addLine(t, store, pt(700, 100), pt(1000, 100), segment.ClassLocal)

	p, err := planner.New(store, congestion.DefaultOptions(), planner.DefaultOptions())
	require.NoError(t, err)

	a, b := node(t, store, pt(100, 100)), node(t, store, pt(1000, 100))
	p.Submit(a, b, planner.PriorityNormal)
	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, planner.StateResolved, results[0].State)
	resolved := results[0]

	// Bulldoze the bridge: the resolved path crosses it.
	require.NoError(t, store.RemoveSegment(bridge))
	require.Equal(t, planner.StateInvalidated, p.Check(resolved),
		"a result must never outlive its graph version")

	// Fresh queries across the cut now return NoRoute.
	p.Submit(a, b, planner.PriorityNormal)
	results, err = p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, planner.StateNoRoute, results[0].State)
}

// TestTick_CongestionCostScenario reproduces the calibration scenario:
// a Local road driven to twice its capacity yields multiplier 3.4 and a
// fresh query costs exactly free-flow × 3.4.
func TestTick_CongestionCostScenario(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	sid := addLine(t, store, pt(100, 100), pt(500, 100), segment.ClassLocal)

	p, err := planner.New(store, fastCongestion(), planner.DefaultOptions())
	require.NoError(t, err)

	observeSegment(p, 1200, sid) // 2× the 600 veh-eq/hr capacity
	require.True(t, p.Model().Tick())

	a, b := node(t, store, pt(100, 100)), node(t, store, pt(500, 100))
	p.Submit(a, b, planner.PriorityNormal)
	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, planner.StateResolved, results[0].State)

	seg, err := store.Segment(sid)
	require.NoError(t, err)
	freeFlow := seg.Length / segment.ClassLocal.Speed()
	require.InDelta(t, freeFlow*3.4, results[0].Cost, 1e-6)
}

// TestTick_ReroutesAroundCongestion verifies that enough congestion on
// the direct road flips the chosen route to a longer free-flowing
// detour.
func TestTick_ReroutesAroundCongestion(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	// Direct: 600 units. Detour via y=400: 1200 units.
	direct1 := addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	direct2 := addLine(t, store, pt(400, 100), pt(700, 100), segment.ClassLocal)
	addLine(t, store, pt(100, 100), pt(100, 400), segment.ClassLocal)
	addLine(t, store, pt(100, 400), pt(700, 400), segment.ClassLocal)
	addLine(t, store, pt(700, 400), pt(700, 100), segment.ClassLocal)

	p, err := planner.New(store, fastCongestion(), planner.DefaultOptions())
	require.NoError(t, err)
	a, b := node(t, store, pt(100, 100)), node(t, store, pt(700, 100))
	detourNode := node(t, store, pt(100, 400))

	p.Submit(a, b, planner.PriorityNormal)
	results, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.NotContains(t, results[0].Nodes, detourNode, "free flow should take the direct road")

	// Saturate the direct road far past capacity; multiplier clamps at 8,
	// making the direct cost 8×75s against the detour's 150s.
	observeSegment(p, 5000, direct1, direct2)
	require.True(t, p.Model().Tick())

	p.Submit(a, b, planner.PriorityNormal)
	results, err = p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, planner.StateResolved, results[0].State)
	require.Contains(t, results[0].Nodes, detourNode, "congestion should push the route onto the detour")
}

// TestTick_DeterministicTies submits the same query over a symmetric
// diamond repeatedly and requires the identical path every time.
func TestTick_DeterministicTies(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	// Two geometrically mirrored routes of equal length and class.
	addLine(t, store, pt(100, 300), pt(400, 100), segment.ClassLocal)
	addLine(t, store, pt(400, 100), pt(700, 300), segment.ClassLocal)
	addLine(t, store, pt(100, 300), pt(400, 500), segment.ClassLocal)
	addLine(t, store, pt(400, 500), pt(700, 300), segment.ClassLocal)

	opts := planner.DefaultOptions()
	opts.CacheTTL = 0 // force a fresh search every tick
	p, err := planner.New(store, congestion.DefaultOptions(), opts)
	require.NoError(t, err)

	a, b := node(t, store, pt(100, 300)), node(t, store, pt(700, 300))

	var first []segment.NodeID
	for i := 0; i < 10; i++ {
		p.Submit(a, b, planner.PriorityNormal)
		results, err := p.Tick(context.Background())
		require.NoError(t, err)
		require.Equal(t, planner.StateResolved, results[0].State)
		if first == nil {
			first = results[0].Nodes
			continue
		}
		require.Equal(t, first, results[0].Nodes, "equal-cost ties must resolve identically")
	}
}

// TestMetrics wires a registry and checks the planner's counters move.
func TestMetrics(t *testing.T) {
	store := segment.NewStore(segment.DefaultStoreOptions())
	addLine(t, store, pt(100, 100), pt(400, 100), segment.ClassLocal)
	a, b := node(t, store, pt(100, 100)), node(t, store, pt(400, 100))

	reg := prometheus.NewRegistry()
	opts := planner.DefaultOptions()
	opts.Metrics = planner.NewMetrics(reg)
	p, err := planner.New(store, congestion.DefaultOptions(), opts)
	require.NoError(t, err)

	p.Submit(a, b, planner.PriorityNormal)
	_, err = p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Resolved))
	require.Equal(t, 0.0, testutil.ToFloat64(opts.Metrics.QueueDepth))

	// Second identical query is a cache hit.
	p.Submit(a, b, planner.PriorityNormal)
	_, err = p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.CacheHits))

	// A topology edit triggers exactly one lazy rebuild on the next tick.
	addLine(t, store, pt(400, 100), pt(700, 100), segment.ClassLocal)
	p.Submit(a, b, planner.PriorityNormal)
	_, err = p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.Rebuilds))
}
