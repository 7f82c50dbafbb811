// Package segment maintains the authoritative, mutable road-network
// topology: curved road segments, the junction nodes they meet at, and a
// monotonic topology version stamped on every successful mutation.
//
// What:
//
//   - Curve: cubic Bezier geometry with arc-length and uniform sampling.
//   - Class: road classification carrying free-flow speed, lane count,
//     per-lane capacity, one-way flag and hierarchy level.
//   - Store: the only persisted source of truth. AddSegment snaps
//     endpoints to existing nodes within a tolerance (nearest node wins,
//     ties broken by lowest node id) or creates new ones; RemoveSegment
//     prunes junction nodes whose degree drops to zero.
//
// Why:
//
//   - Downstream routing structures (csr.Graph) are derived and rebuilt;
//     the Store is what a save file serializes, and its Version() lets
//     consumers detect staleness with a single integer comparison.
//
// Invariants:
//
//   - A failed AddSegment mutates nothing: all geometry validation runs
//     before the first write.
//   - Version() strictly increases across successful mutations and never
//     decreases, including across Snapshot/Restore round-trips.
//   - Node identity is stable only within a topology version.
//
// Errors:
//
//   - ErrGeometry: umbrella for rejected geometry; ErrDegenerateCurve,
//     ErrSelfIntersect and ErrOutOfBounds wrap it.
//   - ErrSegmentNotFound, ErrNodeNotFound: unknown identifiers.
//
// Complexity:
//
//   - AddSegment: O(N) node snap scan + O(S²) polyline self-check
//     (S = fixed sample count).
//   - RemoveSegment: O(D) over incident-segment lists.
package segment
