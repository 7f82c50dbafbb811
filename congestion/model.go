// Package congestion defines the traffic-load aggregation model and its
// options.
package congestion

import (
	"math"
	"sync"

	"github.com/katalvlaran/roadnet/csr"
	"github.com/katalvlaran/roadnet/segment"
)

// Options contains tunable parameters for the congestion model.
type Options struct {
	// Alpha is the EMA smoothing factor applied at each window commit:
	// ema = Alpha*observed + (1-Alpha)*ema.
	Alpha float64

	// BPRAlpha and BPRBeta parameterize the BPR delay term
	// a·(load/capacity)^b. Standard values are 0.15 and 4.
	BPRAlpha float64
	BPRBeta  float64

	// MaxMultiplier caps the congestion multiplier.
	MaxMultiplier float64

	// MaxDelta bounds how far an edge's multiplier may move at a single
	// window commit. Rate-limiting the signal, not the search, is what
	// prevents mass simultaneous re-routing.
	MaxDelta float64

	// Window is the aggregation window length in ticks.
	Window int
}

// DefaultOptions returns the standard model parameters:
// Alpha=0.3, BPRAlpha=0.15, BPRBeta=4, MaxMultiplier=8, MaxDelta=0.5,
// Window=8.
func DefaultOptions() Options {
	return Options{
		Alpha:         0.3,
		BPRAlpha:      0.15,
		BPRBeta:       4,
		MaxMultiplier: 8,
		MaxDelta:      0.5,
		Window:        8,
	}
}

// TravelTime applies the BPR volume-delay function:
// freeFlow · (1 + alpha·(volume/capacity)^beta). A non-positive
// capacity returns freeFlow unchanged.
func TravelTime(freeFlow, volume, capacity, alpha, beta float64) float64 {
	if capacity <= 0 {
		return freeFlow
	}
	return freeFlow * (1 + alpha*math.Pow(volume/capacity, beta))
}

// edgeKey identifies a directed edge independently of graph version.
type edgeKey struct {
	seg     segment.SegmentID
	forward bool
}

// Model holds per-edge congestion state bound to one graph snapshot.
// Observe may be called freely between window commits; Tick and Rebind
// are expected at tick boundaries. All methods are safe for concurrent
// use, though searches normally read a copied multiplier slice instead.
type Model struct {
	mu sync.RWMutex

	opts  Options
	graph *csr.Graph

	observed   []float64 // vehicle-equivalents seen this window
	loadEMA    []float64
	multiplier []float64

	ticksInWindow int
}

// NewModel creates a Model bound to g, starting at free flow.
func NewModel(g *csr.Graph, opts Options) *Model {
	m := &Model{opts: opts}
	m.bind(g)
	return m
}

func (m *Model) bind(g *csr.Graph) {
	n := g.EdgeCount()
	m.graph = g
	m.observed = make([]float64, n)
	m.loadEMA = make([]float64, n)
	m.multiplier = make([]float64, n)
	for i := range m.multiplier {
		m.multiplier[i] = 1
	}
	m.ticksInWindow = 0
}

// Version returns the graph version the model is bound to.
func (m *Model) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph.Version
}

// Observe adds vehEq vehicle-equivalents to edge e for the current
// window. Negative contributions are ignored.
func (m *Model) Observe(e int32, vehEq float64) {
	if vehEq <= 0 {
		return
	}
	m.mu.Lock()
	if int(e) >= 0 && int(e) < len(m.observed) {
		m.observed[e] += vehEq
	}
	m.mu.Unlock()
}

// Tick advances the window clock. On window close it commits: the EMA
// absorbs the window's observations, multipliers move toward their BPR
// targets by at most MaxDelta, and the observation buffer resets.
// Returns true when a commit happened.
func (m *Model) Tick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ticksInWindow++
	if m.ticksInWindow < m.opts.Window {
		return false
	}
	m.ticksInWindow = 0

	for e := range m.observed {
		m.loadEMA[e] = m.opts.Alpha*m.observed[e] + (1-m.opts.Alpha)*m.loadEMA[e]
		m.observed[e] = 0

		target := TravelTime(1, m.loadEMA[e], m.graph.Capacity[e], m.opts.BPRAlpha, m.opts.BPRBeta)
		if target > m.opts.MaxMultiplier {
			target = m.opts.MaxMultiplier
		}
		// Rate limit the per-window movement.
		delta := target - m.multiplier[e]
		if delta > m.opts.MaxDelta {
			delta = m.opts.MaxDelta
		} else if delta < -m.opts.MaxDelta {
			delta = -m.opts.MaxDelta
		}
		m.multiplier[e] += delta
		if m.multiplier[e] < 1 {
			m.multiplier[e] = 1
		}
	}
	return true
}

// Multiplier returns the congestion multiplier for edge e, always ≥ 1.
func (m *Model) Multiplier(e int32) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(e) < 0 || int(e) >= len(m.multiplier) {
		return 1
	}
	return m.multiplier[e]
}

// Load returns the smoothed load EMA for edge e.
func (m *Model) Load(e int32) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(e) < 0 || int(e) >= len(m.loadEMA) {
		return 0
	}
	return m.loadEMA[e]
}

// Multipliers returns a copy of the full multiplier array. Planners
// copy once per tick and share the copy read-only across searches.
func (m *Model) Multipliers() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]float64, len(m.multiplier))
	copy(out, m.multiplier)
	return out
}

// AverageMultiplier returns the mean multiplier across all edges, or 1
// for an empty graph.
func (m *Model) AverageMultiplier() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.multiplier) == 0 {
		return 1
	}
	sum := 0.0
	for _, v := range m.multiplier {
		sum += v
	}
	return sum / float64(len(m.multiplier))
}

// Rebind moves the model onto a new graph snapshot. State carries over
// per (segment, direction): edges that survived the topology edit keep
// their EMA and multiplier, edges new to the graph start at free flow.
// The in-progress window's raw observations are dropped: their edge
// indices belong to the old version.
func (m *Model) Rebind(g *csr.Graph) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.graph
	carryEMA := make(map[edgeKey]float64, old.EdgeCount())
	carryMult := make(map[edgeKey]float64, old.EdgeCount())
	for e := 0; e < old.EdgeCount(); e++ {
		k := edgeKey{old.EdgeSegment[e], old.EdgeForward[e]}
		carryEMA[k] = m.loadEMA[e]
		carryMult[k] = m.multiplier[e]
	}

	m.bind(g)
	for e := 0; e < g.EdgeCount(); e++ {
		k := edgeKey{g.EdgeSegment[e], g.EdgeForward[e]}
		if ema, ok := carryEMA[k]; ok {
			m.loadEMA[e] = ema
			m.multiplier[e] = carryMult[k]
		}
	}
}
