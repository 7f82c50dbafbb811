// Package roadnet is the road-network backbone of a city simulator:
// curved road segments, a compact routing graph, congestion feedback and
// budgeted batch pathfinding.
//
// 🚀 What is roadnet?
//
//	A thread-safe toolkit that brings together:
//		• segment/    — Bezier road segments, junction snapping, class hierarchy,
//		  JSON snapshots
//		• csr/        — immutable compressed-sparse-row routing graph, rebuilt
//		  deterministically per topology version
//		• congestion/ — EMA-smoothed, BPR-derived travel-time multipliers with
//		  rate limiting and cross-version carry-over
//		• planner/    — budgeted parallel A* over the CSR snapshot, with
//		  priorities, a drift-aware path cache and version invalidation
//		• overlay/    — read-only JSON endpoints for map rendering and debugging
//		• simconfig/  — YAML + env configuration for the driver
//
// ✨ Why this shape?
//
//   - Editing and routing never contend: mutations version the segment
//     store, searches run on an immutable CSR snapshot rebuilt lazily.
//   - Congestion is a slow signal on purpose: smoothing and rate limits
//     keep thousands of agents from stampeding onto the same detour.
//   - The per-tick budget K makes planning cost constant regardless of
//     demand spikes; overflow is deferred, never dropped.
//
// Quick ASCII example:
//
//	    A═══B───C        ═ avenue, ─ local street
//	    │   │   │
//	    D───E───F
//
//	a topology edit anywhere bumps the version, the next planner tick
//	rebuilds the snapshot and invalidates stale paths.
//
// Try the demo driver:
//
//	go run github.com/katalvlaran/roadnet/cmd/roadsim --ticks 2000 --listen :8090
package roadnet
