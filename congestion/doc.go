// Package congestion converts raw per-tick edge occupancy into a
// stable, bounded travel-time multiplier per directed edge.
//
// What:
//
//   - Model: accumulates vehicle-equivalents observed on each edge of
//     one csr.Graph snapshot, then once per fixed window commits an
//     exponential-moving-average load and derives a BPR-style
//     multiplier: 1 + a·(load/capacity)^b, clamped to [1, MaxMultiplier].
//   - TravelTime: the raw BPR formula, exported for direct use.
//   - Rebind: carries learned load across topology versions, keyed by
//     (segment id, direction), so a road edit does not reset the whole
//     city's congestion signal.
//
// Why the smoothing is mandatory, not optional:
//
//   - Raw per-tick counts are bursty. Routing against them makes every
//     agent react to the same spike at once, congesting the alternate
//     route and oscillating ("route flapping"). The signal is stabilized
//     three ways: the EMA (alpha ≈ 0.3), the per-window cap on how far
//     the multiplier may move (MaxDelta), and the clamp ceiling.
//
// Invariants:
//
//   - Multiplier(e) ≥ 1 always: congestion adds delay, never subtracts.
//   - Load never goes negative and never reflects a single tick alone.
//   - Raising an edge's load EMA never lowers its multiplier.
//
// The Model is never persisted: after a load it starts at free flow and
// re-learns within one aggregation window.
package congestion
