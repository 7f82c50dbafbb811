package overlay_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/roadnet/congestion"
	"github.com/katalvlaran/roadnet/overlay"
	"github.com/katalvlaran/roadnet/planner"
	"github.com/katalvlaran/roadnet/segment"
)

func newRouter(t *testing.T) (*gin.Engine, *planner.Planner, *segment.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := segment.NewStore(segment.DefaultStoreOptions())
	line := func(a, b segment.Point, class segment.Class) {
		_, err := store.AddSegment(segment.Line(a, b), class)
		require.NoError(t, err)
	}
	line(segment.Point{X: 100, Y: 100}, segment.Point{X: 400, Y: 100}, segment.ClassLocal)
	line(segment.Point{X: 400, Y: 100}, segment.Point{X: 700, Y: 100}, segment.ClassOneWay)

	p, err := planner.New(store, congestion.DefaultOptions(), planner.DefaultOptions())
	require.NoError(t, err)

	r := gin.New()
	overlay.New(p).Register(r)
	return r, p, store
}

func get(t *testing.T, r *gin.Engine, path string, out any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestNodes(t *testing.T) {
	r, _, store := newRouter(t)

	var nodes []overlay.NodeView
	get(t, r, "/overlay/nodes", &nodes)
	require.Len(t, nodes, store.NodeCount())

	degrees := make(map[segment.NodeID]int, len(nodes))
	for _, n := range nodes {
		degrees[n.ID] = n.Degree
	}
	mid, ok := store.NearestNode(segment.Point{X: 400, Y: 100})
	require.True(t, ok)
	// Out-degree: back along the local road plus the one-way exit.
	require.Equal(t, 2, degrees[mid])
}

func TestEdges(t *testing.T) {
	r, _, _ := newRouter(t)

	var edges []overlay.EdgeView
	get(t, r, "/overlay/edges", &edges)
	// Two directed edges for the local road, one for the one-way.
	require.Len(t, edges, 3)

	classes := map[string]int{}
	for _, e := range edges {
		classes[e.Class]++
		require.GreaterOrEqual(t, e.Multiplier, 1.0)
		require.Greater(t, e.FreeFlow, 0.0)
		require.Equal(t, "A", e.LOS, "an idle network is all grade A")
	}
	require.Equal(t, 2, classes["local"])
	require.Equal(t, 1, classes["oneway"])
}

func TestEdgesReflectCongestion(t *testing.T) {
	r, p, _ := newRouter(t)

	// Push every edge far past capacity for enough windows that the
	// default rate limiter walks the multiplier past grade E.
	g := p.Graph()
	for i := 0; i < 80; i++ {
		for e := int32(0); int(e) < g.EdgeCount(); e++ {
			p.Model().Observe(e, 5000)
		}
		p.Model().Tick()
	}

	var edges []overlay.EdgeView
	get(t, r, "/overlay/edges", &edges)
	for _, e := range edges {
		require.Greater(t, e.Multiplier, 1.0)
		require.Equal(t, "F", e.LOS)
	}
}

func TestSummary(t *testing.T) {
	r, _, store := newRouter(t)

	var s overlay.Summary
	get(t, r, "/overlay/summary", &s)
	require.Equal(t, store.Version(), s.Version)
	require.Equal(t, store.NodeCount(), s.Nodes)
	require.Equal(t, 3, s.Edges)
	require.Equal(t, 1.0, s.AverageMultiplier)
	require.Equal(t, 0, s.QueueDepth)
}
