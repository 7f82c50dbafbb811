// Package csr builds compact, versioned, read-only routing graphs in
// Compressed Sparse Row form from a segment.Store.
//
// What:
//
//   - Graph: immutable flat arrays — Offsets[N+1], Targets[E],
//     FreeFlow[E], Capacity[E] — plus per-edge segment identity and
//     class, and per-node position. Stamped with the topology version it
//     was built from.
//   - Build: deterministic construction. Nodes are assigned dense
//     indices sorted by position (Y, then X, then node id), so an
//     unchanged topology always produces byte-identical arrays.
//
// Why:
//
//   - Path queries iterate adjacency out of flat arrays with no pointer
//     chasing and no locks; many searches share one snapshot read-only.
//   - Version stamping makes staleness a checkable property: a result
//     computed against version v is invalid once the store moves past v.
//
// Shape:
//
//   - Each traversable direction of a two-way segment is a distinct
//     directed edge (same underlying geometry); one-way segments
//     contribute a single start→end edge.
//   - FreeFlow[e] = arc length / class speed. Capacity[e] = lanes ×
//     per-lane capacity.
//
// Errors:
//
//   - ErrMalformedGraph: post-build consistency check failed. Callers
//     must treat this as fatal for the snapshot — a partial CSR cannot
//     safely serve queries. An empty store builds an empty, valid graph.
//
// Complexity: Build is O(N log N + E log E); queries are O(1) per
// adjacency step.
package csr
