// Package overlay exposes the live routing state as a read-only JSON
// surface for debug tooling and map rendering.
//
// What:
//
//   - GET /overlay/nodes: every junction with its position and routing
//     out-degree.
//   - GET /overlay/edges: every directed edge with its class, free-flow
//     cost, smoothed load, congestion multiplier and a level-of-service
//     grade A..F derived from the multiplier.
//   - GET /overlay/summary: counts, topology version and the average
//     multiplier across all edges.
//
// The overlay reads from the planner's current snapshot and congestion
// model; it never mutates either. Handlers are safe to serve while the
// simulation ticks.
package overlay
