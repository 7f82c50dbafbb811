// Package planner resolves batches of origin/destination path requests
// per simulation tick, under a hard budget, via A* over the current
// csr.Graph snapshot with congestion-adjusted edge costs.
//
// What:
//
//   - Planner: owns the CSR snapshot lifecycle (lazy rebuild when the
//     store's topology version advances) and a congestion.Model bound to
//     it. Requests are queued with Submit, served by Tick, cancelled by
//     flag (checked at dequeue, never interrupting in-progress work).
//   - Tick: serves Emergency requests first, then FIFO, up to Budget K.
//     Overflow stays queued: deferred, observable via QueueDepth, never
//     dropped. Searches run in parallel workers, each with private
//     open/closed state, reading only the immutable snapshot and a
//     multiplier array copied once at tick start; the search phase takes
//     no locks.
//   - Results carry the graph version they were computed against. Check
//     downgrades a Resolved result to Invalidated once the topology
//     moves past that version; a stale path must be re-planned from the
//     agent's current position, never walked.
//
// Cost model and an accepted approximation:
//
//   - Edge weight = free-flow cost × congestion multiplier. The
//     heuristic is straight-line distance over the maximum class speed,
//     which ignores congestion; it is admissible with respect to
//     free-flow cost only, so returned paths are optimal for free-flow
//     distance, not necessarily for congested cost. This is a
//     documented trade, not a bug: keeping the heuristic congestion-free
//     keeps it admissible and the search deterministic.
//
// Determinism:
//
//   - Equal-cost paths tie-break on fewer turns, then higher road class
//     of the arriving edge, then lower node index. Repeated identical
//     queries resolve identically.
//
// Caching:
//
//   - Per (origin, destination) with a tick TTL. Entries die when the
//     topology version changes or when any on-path edge's multiplier
//     drifts beyond CacheDrift relative to its value at compute time.
//
// Outcomes:
//
//   - Disconnected origin/destination is a normal, per-request NoRoute
//     result, isolated from other requests in the batch. A failed CSR
//     rebuild (csr.ErrMalformedGraph) aborts the whole Tick, since a partial
//     graph must not serve queries.
package planner
