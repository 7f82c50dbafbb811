package planner

import (
	"container/heap"
	"math"

	"github.com/katalvlaran/roadnet/csr"
	"github.com/katalvlaran/roadnet/segment"
)

// costEpsilon is the tolerance for treating two path costs as equal
// when applying the deterministic tie-break.
const costEpsilon = 1e-9

// turnCos is the cosine threshold below which a heading change at a
// node counts as a turn (roughly 30 degrees).
var turnCos = math.Cos(30 * math.Pi / 180)

// searchResult is the outcome of one A* run.
type searchResult struct {
	nodes []int32 // dense node indices, origin..dest
	edges []int32 // CSR edge indices, len(nodes)-1
	cost  float64
	found bool
}

// astar runs one search over the snapshot. mults is index-aligned with
// the graph's edges and read-only; all mutable state below is private
// to this call, so concurrent searches over the same snapshot need no
// locking.
//
// The structure follows the lazy-decrease-key discipline: shorter (or
// equally short but better tie-ranked) labels are pushed as duplicates
// and stale heap entries are skipped on pop.
func astar(g *csr.Graph, mults []float64, origin, dest int32) searchResult {
	n := g.NodeCount()
	if n == 0 {
		return searchResult{}
	}

	invSpeed := 1 / segment.MaxSpeed()
	goal := g.Positions[dest]

	dist := make([]float64, n)
	turns := make([]int32, n)
	level := make([]uint8, n)
	visited := make([]bool, n)
	prevNode := make([]int32, n)
	prevEdge := make([]int32, n)
	for i := 0; i < n; i++ {
		dist[i] = math.Inf(1)
		prevNode[i] = -1
		prevEdge[i] = -1
	}
	dist[origin] = 0

	pq := make(nodePQ, 0, 64)
	heap.Init(&pq)
	heap.Push(&pq, &nodeItem{
		node: origin,
		f:    g.Positions[origin].Dist(goal) * invSpeed,
	})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*nodeItem)
		u := item.node
		if visited[u] {
			continue // stale entry
		}
		visited[u] = true
		if u == dest {
			break
		}

		// Heading into u, for turn counting at this junction.
		var inDir segment.Point
		hasDir := false
		if prevNode[u] >= 0 {
			inDir = g.Positions[u].Sub(g.Positions[prevNode[u]])
			hasDir = true
		}

		from, to := g.Neighbors(u)
		for e := from; e < to; e++ {
			v := g.Targets[e]
			if visited[v] {
				continue
			}
			w := g.FreeFlow[e] * mults[e]
			ng := dist[u] + w

			nt := turns[u]
			if hasDir && isTurn(inDir, g.Positions[v].Sub(g.Positions[u])) {
				nt++
			}
			nl := g.EdgeClass[e].Level()

			if !better(ng, nt, nl, dist[v], turns[v], level[v]) {
				continue
			}
			dist[v] = ng
			turns[v] = nt
			level[v] = nl
			prevNode[v] = u
			prevEdge[v] = e
			heap.Push(&pq, &nodeItem{
				node:  v,
				f:     ng + g.Positions[v].Dist(goal)*invSpeed,
				g:     ng,
				turns: nt,
				level: nl,
			})
		}
	}

	if math.IsInf(dist[dest], 1) {
		return searchResult{}
	}

	// Reconstruct origin..dest.
	var nodes []int32
	var edges []int32
	for at := dest; at != -1; at = prevNode[at] {
		nodes = append(nodes, at)
		if prevEdge[at] >= 0 {
			edges = append(edges, prevEdge[at])
		}
	}
	reverse32(nodes)
	reverse32(edges)
	return searchResult{nodes: nodes, edges: edges, cost: dist[dest], found: true}
}

// better reports whether a candidate label (cost ng, nt turns, arriving
// class level nl) improves on a node's current label. Strictly lower
// cost always wins; within costEpsilon the tie-break is fewer turns,
// then higher arriving road class, the ordering that makes repeated
// identical queries resolve identically.
func better(ng float64, nt int32, nl uint8, cur float64, curTurns int32, curLevel uint8) bool {
	if ng < cur-costEpsilon {
		return true
	}
	if ng > cur+costEpsilon {
		return false
	}
	if nt != curTurns {
		return nt < curTurns
	}
	if nl != curLevel {
		return nl > curLevel
	}
	return false
}

// isTurn reports whether the heading change between two direction
// vectors exceeds the turn threshold.
func isTurn(in, out segment.Point) bool {
	li, lo := in.Len(), out.Len()
	if li == 0 || lo == 0 {
		return false
	}
	cos := (in.X*out.X + in.Y*out.Y) / (li * lo)
	return cos < turnCos
}

func reverse32(s []int32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// nodeItem is one priority-queue entry: a node plus the f = g + h score
// it was pushed with, and the tie-break attributes of its label.
type nodeItem struct {
	node  int32
	f     float64
	g     float64
	turns int32
	level uint8
}

// nodePQ is a min-heap of *nodeItem ordered by f ascending, with the
// same deterministic tie-break as label relaxation: fewer turns, higher
// class level, lower node index.
type nodePQ []*nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.turns != b.turns {
		return a.turns < b.turns
	}
	if a.level != b.level {
		return a.level > b.level
	}
	return a.node < b.node
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }

func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
