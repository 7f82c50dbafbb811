package planner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes planner health as prometheus collectors. Queue depth
// is the primary overload signal: deferred requests are visible here
// rather than silently starving.
type Metrics struct {
	QueueDepth  prometheus.Gauge
	Resolved    prometheus.Counter
	NoRoute     prometheus.Counter
	CacheHits   prometheus.Counter
	Rebuilds    prometheus.Counter
	Invalidated prometheus.Counter
}

// NewMetrics builds the collector set and registers it with reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadnet",
			Subsystem: "planner",
			Name:      "queue_depth",
			Help:      "Requests waiting for per-tick budget.",
		}),
		Resolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadnet",
			Subsystem: "planner",
			Name:      "resolved_total",
			Help:      "Requests resolved with a path.",
		}),
		NoRoute: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadnet",
			Subsystem: "planner",
			Name:      "noroute_total",
			Help:      "Requests whose origin and destination are disconnected.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadnet",
			Subsystem: "planner",
			Name:      "cache_hits_total",
			Help:      "Requests served from the path cache.",
		}),
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadnet",
			Subsystem: "planner",
			Name:      "graph_rebuilds_total",
			Help:      "CSR snapshot rebuilds triggered by topology changes.",
		}),
		Invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadnet",
			Subsystem: "planner",
			Name:      "invalidated_total",
			Help:      "Resolved paths invalidated by a topology change.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.QueueDepth, m.Resolved, m.NoRoute, m.CacheHits, m.Rebuilds, m.Invalidated)
	}
	return m
}

func (m *Metrics) observeResult(s State) {
	switch s {
	case StateResolved:
		m.Resolved.Inc()
	case StateNoRoute:
		m.NoRoute.Inc()
	}
}
