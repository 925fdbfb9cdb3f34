package callgraph

import (
	"slices"
)

// Edge is one caller -> callee pair observed in a tree.
type Edge struct {
	From string
	To   string
}

type Graph struct {
	Edges     [][]FuncID // Edges[from] = []to, без повторов и петель
	Indeg     []int      // входящие степени для Kahn
	SelfLoops []FuncID   // функции, вызывающие сами себя напрямую
}

// BuildGraph turns name pairs into an adjacency list over idx. Pairs naming
// functions missing from idx are ignored.
func BuildGraph(idx Index, edges []Edge) Graph {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges: make([][]FuncID, nodeCount),
		Indeg: make([]int, nodeCount),
	}

	seen := make(map[[2]FuncID]struct{}, len(edges))
	self := make(map[FuncID]struct{})
	for _, e := range edges {
		from, ok := idx.NameToID[e.From]
		if !ok {
			continue
		}
		to, ok := idx.NameToID[e.To]
		if !ok {
			continue
		}
		if from == to {
			self[from] = struct{}{}
			continue
		}
		key := [2]FuncID{from, to}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		g.Edges[int(from)] = append(g.Edges[int(from)], to)
		g.Indeg[int(to)]++
	}

	for from := range g.Edges {
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}
	for id := range self {
		g.SelfLoops = append(g.SelfLoops, id)
	}
	slices.Sort(g.SelfLoops)

	return g
}

// EdgeCount is the number of distinct caller -> callee pairs, self calls excluded.
func (g Graph) EdgeCount() int {
	n := 0
	for _, to := range g.Edges {
		n += len(to)
	}
	return n
}
