package planner

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/roadnet/congestion"
	"github.com/katalvlaran/roadnet/csr"
	"github.com/katalvlaran/roadnet/segment"
)

// pending is a queued request plus its mutable lifecycle flags.
type pending struct {
	Request
	state     State
	cancelled bool
}

// odKey is the path-cache key.
type odKey struct {
	origin, dest segment.NodeID
}

// cacheEntry is one cached resolved path with the context needed to
// judge staleness: the tick and graph version it was computed at, and
// the multiplier of every on-path edge at compute time.
type cacheEntry struct {
	result    Result
	tick      uint64
	edgeMults []float64
}

// Planner owns the routing snapshot lifecycle and resolves budgeted
// batches of path requests. Create with New, feed with Submit, drive
// with Tick once per simulation tick.
type Planner struct {
	mu sync.Mutex

	store *segment.Store
	model *congestion.Model
	graph *csr.Graph
	opts  Options

	tick uint64

	emergency []*pending
	normal    []*pending
	byID      map[uuid.UUID]*pending

	cache map[odKey]*cacheEntry
}

// New builds the initial CSR snapshot from store and binds a congestion
// model to it. A build failure is returned as csr.ErrMalformedGraph:
// fatal, since a partial graph cannot serve queries.
func New(store *segment.Store, copts congestion.Options, opts Options) (*Planner, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultOptions().Budget
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions().Workers
	}

	g, err := csr.Build(store)
	if err != nil {
		return nil, err
	}
	return &Planner{
		store: store,
		model: congestion.NewModel(g, copts),
		graph: g,
		opts:  opts,
		byID:  make(map[uuid.UUID]*pending),
		cache: make(map[odKey]*cacheEntry),
	}, nil
}

// Model returns the congestion model bound to the current snapshot.
// Agents report traversal through it; the overlay reads it.
func (p *Planner) Model() *congestion.Model { return p.model }

// Graph returns the current CSR snapshot. Read-only by contract.
func (p *Planner) Graph() *csr.Graph {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.graph
}

// Submit queues a request and returns its id. The request stays queued
// across ticks until budget reaches it.
func (p *Planner) Submit(origin, dest segment.NodeID, prio Priority) uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	req := &pending{
		Request: Request{
			ID:         uuid.New(),
			Origin:     origin,
			Dest:       dest,
			Priority:   prio,
			SubmitTick: p.tick,
		},
		state: StateQueued,
	}
	p.byID[req.ID] = req
	if prio == PriorityEmergency {
		p.emergency = append(p.emergency, req)
	} else {
		p.normal = append(p.normal, req)
	}
	p.observeQueueDepth()
	return req.ID
}

// Cancel flags a queued request. The flag is honored at dequeue time;
// work already dispatched this tick completes and its result is simply
// dropped by the caller. Returns false for unknown or already-served
// ids.
func (p *Planner) Cancel(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	req, ok := p.byID[id]
	if !ok {
		return false
	}
	req.cancelled = true
	return true
}

// QueueDepth returns the number of requests waiting for budget. A
// persistently high depth is the overload signal to tune Budget against.
func (p *Planner) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.emergency) + len(p.normal)
}

// Check revalidates a result against the current snapshot: a Resolved
// result computed against an older topology version is Invalidated and
// must be re-planned from the agent's current position.
func (p *Planner) Check(res Result) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if res.State == StateResolved && res.Version < p.store.Version() {
		if m := p.opts.Metrics; m != nil {
			m.Invalidated.Inc()
		}
		return StateInvalidated
	}
	return res.State
}

// Tick resolves up to Budget queued requests against the current
// snapshot and returns their results in dispatch order (emergencies
// first). The snapshot is rebuilt lazily when the topology version has
// advanced; the congestion model is rebound and the cache purged in the
// same step.
func (p *Planner) Tick(ctx context.Context) ([]Result, error) {
	p.mu.Lock()
	p.tick++

	if err := p.refreshLocked(); err != nil {
		p.mu.Unlock()
		return nil, err
	}

	batch := p.dequeueLocked()
	graph := p.graph
	tick := p.tick
	p.mu.Unlock()

	if len(batch) == 0 {
		return nil, nil
	}

	// One multiplier copy per tick, shared read-only by every worker.
	mults := p.model.Multipliers()

	results := make([]Result, len(batch))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)
	for i, req := range batch {
		i, req := i, req
		eg.Go(func() error {
			results[i] = p.resolve(graph, mults, req, tick)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	for i := range results {
		p.finishLocked(&results[i], mults, tick)
	}
	p.observeQueueDepth()
	p.mu.Unlock()

	if m := p.opts.Metrics; m != nil {
		for i := range results {
			m.observeResult(results[i].State)
		}
	}
	return results, nil
}

// refreshLocked rebuilds the snapshot if the store moved. Caller holds
// p.mu.
func (p *Planner) refreshLocked() error {
	if p.store.Version() == p.graph.Version {
		return nil
	}
	g, err := csr.Build(p.store)
	if err != nil {
		return fmt.Errorf("planner: rebuild: %w", err)
	}
	p.graph = g
	p.model.Rebind(g)
	// Indices cached against the old version are meaningless now.
	p.cache = make(map[odKey]*cacheEntry)
	if m := p.opts.Metrics; m != nil {
		m.Rebuilds.Inc()
	}
	return nil
}

// dequeueLocked pops up to Budget live requests, emergencies first.
// Cancelled requests are discarded here without consuming budget.
// Caller holds p.mu.
func (p *Planner) dequeueLocked() []*pending {
	batch := make([]*pending, 0, p.opts.Budget)
	for _, q := range []*[]*pending{&p.emergency, &p.normal} {
		for len(*q) > 0 && len(batch) < p.opts.Budget {
			req := (*q)[0]
			*q = (*q)[1:]
			delete(p.byID, req.ID)
			if req.cancelled {
				continue
			}
			req.state = StatePlanning
			batch = append(batch, req)
		}
	}
	return batch
}

// resolve serves one request against an immutable snapshot. No planner
// state is touched: cache reads take the lock briefly, the search runs
// lock-free.
func (p *Planner) resolve(graph *csr.Graph, mults []float64, req *pending, tick uint64) Result {
	res := Result{Request: req.Request, Version: graph.Version}

	origin, okO := graph.IndexOf(req.Origin)
	dest, okD := graph.IndexOf(req.Dest)
	if !okO || !okD {
		res.State = StateNoRoute
		return res
	}

	if cached, ok := p.cacheLookup(req.Origin, req.Dest, graph.Version, mults, tick); ok {
		cached.Request = req.Request
		cached.fromCache = true
		return cached
	}

	sr := astar(graph, mults, origin, dest)
	if !sr.found {
		res.State = StateNoRoute
		return res
	}

	res.State = StateResolved
	res.Cost = sr.cost
	res.Edges = sr.edges
	res.Nodes = make([]segment.NodeID, len(sr.nodes))
	res.Waypoints = make([]segment.Point, len(sr.nodes))
	for i, idx := range sr.nodes {
		res.Nodes[i] = graph.NodeIDs[idx]
		res.Waypoints[i] = graph.Positions[idx]
	}
	return res
}

// cacheLookup returns a fresh cached result for the pair, if any.
func (p *Planner) cacheLookup(origin, dest segment.NodeID, version uint64, mults []float64, tick uint64) (Result, bool) {
	p.mu.Lock()
	entry, ok := p.cache[odKey{origin, dest}]
	p.mu.Unlock()
	if !ok {
		return Result{}, false
	}
	if entry.result.Version != version || tick-entry.tick > p.opts.CacheTTL {
		return Result{}, false
	}
	// Any on-path multiplier drifting past the threshold kills the entry.
	for i, e := range entry.result.Edges {
		then := entry.edgeMults[i]
		if math.Abs(mults[e]-then) > p.opts.CacheDrift*then {
			return Result{}, false
		}
	}
	if m := p.opts.Metrics; m != nil {
		m.CacheHits.Inc()
	}
	return entry.result, true
}

// finishLocked stores resolved results in the cache. Caller holds p.mu.
func (p *Planner) finishLocked(res *Result, mults []float64, tick uint64) {
	if res.State != StateResolved || res.fromCache {
		return
	}
	key := odKey{res.Origin, res.Dest}
	edgeMults := make([]float64, len(res.Edges))
	for i, e := range res.Edges {
		edgeMults[i] = mults[e]
	}
	p.cache[key] = &cacheEntry{result: *res, tick: tick, edgeMults: edgeMults}
}

func (p *Planner) observeQueueDepth() {
	if m := p.opts.Metrics; m != nil {
		m.QueueDepth.Set(float64(len(p.emergency) + len(p.normal)))
	}
}
