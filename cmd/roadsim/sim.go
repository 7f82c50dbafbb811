package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/katalvlaran/roadnet/overlay"
	"github.com/katalvlaran/roadnet/planner"
	"github.com/katalvlaran/roadnet/segment"
	"github.com/katalvlaran/roadnet/simconfig"
)

// vehicleEquivalent is the load one agent contributes to an edge per
// tick. Each simulated agent stands for a platoon, so a modest agent
// count can still saturate a local street.
const vehicleEquivalent = 25

// gridRows/gridCols/gridSpacing shape the synthetic city.
const (
	gridRows    = 8
	gridCols    = 8
	gridSpacing = 300.0
	gridOrigin  = 200.0
)

// agent is one travelling unit: either walking a resolved plan edge by
// edge, or waiting for the planner to answer its request.
type agent struct {
	at      segment.NodeID
	plan    planner.Result
	step    int
	pending uuid.UUID
	waiting bool
}

func runSim(ctx context.Context, cfg simconfig.Config) error {
	store := segment.NewStore(cfg.StoreOptions())
	if err := buildCity(store); err != nil {
		return fmt.Errorf("build city: %w", err)
	}
	slog.Info("city built",
		"nodes", store.NodeCount(),
		"segments", store.SegmentCount(),
		"hierarchy_violations", len(store.HierarchyViolations()))

	reg := prometheus.NewRegistry()
	popts := cfg.PlannerOptions()
	popts.Metrics = planner.NewMetrics(reg)
	p, err := planner.New(store, cfg.CongestionOptions(), popts)
	if err != nil {
		return err
	}

	if cfg.Sim.Listen != "" {
		srv := serveOverlay(cfg.Sim.Listen, p, reg)
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	rng := rand.New(rand.NewSource(cfg.Sim.Seed))
	nodes := store.Nodes()
	agents := make([]*agent, cfg.Sim.Agents)
	byRequest := make(map[uuid.UUID]*agent, len(agents))
	for i := range agents {
		agents[i] = &agent{at: nodes[rng.Intn(len(nodes))].ID}
		submit(p, agents[i], rng, nodes, byRequest)
	}

	for tick := 1; tick <= cfg.Sim.Ticks; tick++ {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", tick)
			return nil
		default:
		}

		results, err := p.Tick(ctx)
		if err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
		for _, res := range results {
			a, ok := byRequest[res.ID]
			if !ok {
				continue
			}
			delete(byRequest, res.ID)
			a.waiting = false
			if res.State != planner.StateResolved {
				// Disconnected pick; try another destination next tick.
				submit(p, a, rng, nodes, byRequest)
				continue
			}
			a.plan = res
			a.step = 0
		}

		walkAgents(p, agents, rng, nodes, byRequest)

		if p.Model().Tick() {
			slog.Info("window",
				"tick", tick,
				"queue_depth", p.QueueDepth(),
				"avg_multiplier", fmt.Sprintf("%.3f", p.Model().AverageMultiplier()))
		}
	}

	slog.Info("simulation finished",
		"ticks", cfg.Sim.Ticks,
		"avg_multiplier", fmt.Sprintf("%.3f", p.Model().AverageMultiplier()))
	return nil
}

// walkAgents advances every travelling agent one edge, feeding the
// observed load back into the congestion model. Plans whose topology
// version lapsed are dropped and replanned from the agent's current
// node.
func walkAgents(p *planner.Planner, agents []*agent, rng *rand.Rand, nodes []segment.Node, byRequest map[uuid.UUID]*agent) {
	model := p.Model()
	for _, a := range agents {
		if a.waiting {
			continue
		}
		if p.Check(a.plan) != planner.StateResolved {
			submit(p, a, rng, nodes, byRequest)
			continue
		}
		if a.step >= len(a.plan.Edges) {
			// Arrived; pick a fresh destination.
			submit(p, a, rng, nodes, byRequest)
			continue
		}
		e := a.plan.Edges[a.step]
		model.Observe(e, vehicleEquivalent)
		a.step++
		a.at = a.plan.Nodes[a.step]
	}
}

// submit queues a new random-destination request for the agent.
func submit(p *planner.Planner, a *agent, rng *rand.Rand, nodes []segment.Node, byRequest map[uuid.UUID]*agent) {
	dest := nodes[rng.Intn(len(nodes))].ID
	for dest == a.at {
		dest = nodes[rng.Intn(len(nodes))].ID
	}
	a.plan = planner.Result{}
	a.pending = p.Submit(a.at, dest, planner.PriorityNormal)
	a.waiting = true
	byRequest[a.pending] = a
}

// buildCity lays out a rectangular grid: local streets inside, a
// boulevard ring outside, and every third vertical upgraded to an
// avenue.
func buildCity(store *segment.Store) error {
	at := func(col, row int) segment.Point {
		return segment.Point{
			X: gridOrigin + float64(col)*gridSpacing,
			Y: gridOrigin + float64(row)*gridSpacing,
		}
	}
	add := func(a, b segment.Point, class segment.Class) error {
		_, err := store.AddSegment(segment.Line(a, b), class)
		return err
	}

	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridCols; col++ {
			onRing := func(c, r int) bool {
				return c == 0 || r == 0 || c == gridCols-1 || r == gridRows-1
			}
			if col+1 < gridCols {
				class := segment.ClassLocal
				if onRing(col, row) && onRing(col+1, row) && (row == 0 || row == gridRows-1) {
					class = segment.ClassBoulevard
				}
				if err := add(at(col, row), at(col+1, row), class); err != nil {
					return err
				}
			}
			if row+1 < gridRows {
				class := segment.ClassLocal
				switch {
				case onRing(col, row) && onRing(col, row+1) && (col == 0 || col == gridCols-1):
					class = segment.ClassBoulevard
				case col%3 == 0:
					class = segment.ClassAvenue
				}
				if err := add(at(col, row), at(col, row+1), class); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// serveOverlay starts the overlay and metrics endpoints in the
// background.
func serveOverlay(addr string, p *planner.Planner, reg *prometheus.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	overlay.New(p).Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("overlay listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("overlay server stopped", "error", err)
		}
	}()
	return srv
}
