package callgraph

// Report is the name-level view of a call graph, ready for printing.
type Report struct {
	Functions     int        `json:"functions"`
	Edges         int        `json:"edges"`
	Levels        [][]string `json:"levels"`
	Recursive     []string   `json:"recursive,omitempty"`
	SelfRecursive []string   `json:"self_recursive,omitempty"`
}

// Analyze builds the index, the graph and its levels from raw call pairs.
// Every name in edges and in extra is a node; extra covers functions that
// never call or get called, such as a lone entry point.
func Analyze(edges []Edge, extra ...string) Report {
	names := make([]string, 0, len(edges)*2+len(extra))
	for _, e := range edges {
		names = append(names, e.From, e.To)
	}
	names = append(names, extra...)

	idx := BuildIndex(names)
	g := BuildGraph(idx, edges)
	topo := ToposortKahn(g)

	r := Report{
		Functions:     len(idx.IDToName),
		Edges:         g.EdgeCount(),
		Levels:        make([][]string, 0, len(topo.Batches)),
		SelfRecursive: idx.Names(g.SelfLoops),
	}
	for _, batch := range topo.Batches {
		r.Levels = append(r.Levels, idx.Names(batch))
	}
	if topo.Cyclic {
		r.Recursive = idx.Names(topo.Cycles)
	}
	if len(r.SelfRecursive) == 0 {
		r.SelfRecursive = nil
	}
	return r
}
