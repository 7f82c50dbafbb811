// Package planner defines request/result types, states, options and
// sentinel errors for the batch path planner.
package planner

import (
	"errors"
	"runtime"

	"github.com/google/uuid"

	"github.com/katalvlaran/roadnet/segment"
)

// Sentinel errors for planner operations.
var (
	// ErrNilStore indicates New was called without a segment store.
	ErrNilStore = errors.New("planner: nil segment store")

	// ErrUnknownRequest indicates an id that was never submitted or has
	// already been resolved.
	ErrUnknownRequest = errors.New("planner: unknown request id")
)

// Priority orders requests within a tick's budget.
type Priority uint8

const (
	// PriorityNormal requests are served FIFO after all emergencies.
	PriorityNormal Priority = iota
	// PriorityEmergency requests preempt the normal queue.
	PriorityEmergency
)

// String returns the priority name.
func (p Priority) String() string {
	if p == PriorityEmergency {
		return "emergency"
	}
	return "normal"
}

// State is the lifecycle state of a path request.
//
// Queued → Planning → Resolved | NoRoute; a Resolved result whose graph
// version is superseded becomes Invalidated.
type State uint8

const (
	// StateQueued: submitted, not yet picked up by a tick.
	StateQueued State = iota
	// StatePlanning: picked up by the current tick's batch.
	StatePlanning
	// StateResolved: a path was found; see Result.Nodes and Result.Cost.
	StateResolved
	// StateNoRoute: origin and destination are disconnected. A normal,
	// recoverable outcome, not an error.
	StateNoRoute
	// StateInvalidated: the topology version advanced past the one the
	// result was computed against; the owner must re-submit from its
	// current position.
	StateInvalidated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StatePlanning:
		return "planning"
	case StateResolved:
		return "resolved"
	case StateNoRoute:
		return "no_route"
	case StateInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Request is a single origin/destination travel request.
type Request struct {
	ID         uuid.UUID
	Origin     segment.NodeID
	Dest       segment.NodeID
	Priority   Priority
	SubmitTick uint64
}

// Result is the outcome of one request, bound to the graph version it
// was computed against. Nodes, Edges and Waypoints are parallel to the
// traversal order; Edges holds indices into that version's CSR arrays
// and is meaningless under any other version.
type Result struct {
	Request

	State     State
	Nodes     []segment.NodeID
	Edges     []int32
	Waypoints []segment.Point
	Cost      float64
	Version   uint64

	// fromCache marks results served from the path cache so they are
	// not re-inserted with a fresher drift baseline.
	fromCache bool
}

// Options contains tunable parameters for the Planner.
type Options struct {
	// Budget is the hard cap K on requests resolved per tick. Overflow
	// is deferred to later ticks, never dropped.
	Budget int

	// Workers bounds the parallel searches per tick. Zero means
	// runtime.NumCPU().
	Workers int

	// CacheTTL is the cache entry lifetime in ticks.
	CacheTTL uint64

	// CacheDrift invalidates a cached path once any of its edges'
	// congestion multipliers moves by more than this fraction relative
	// to compute time.
	CacheDrift float64

	// Metrics receives planner counters when non-nil.
	Metrics *Metrics
}

// DefaultOptions returns the standard planner parameters:
// Budget=256, Workers=NumCPU, CacheTTL=64 ticks, CacheDrift=0.20.
func DefaultOptions() Options {
	return Options{
		Budget:     256,
		Workers:    runtime.NumCPU(),
		CacheTTL:   64,
		CacheDrift: 0.20,
	}
}
