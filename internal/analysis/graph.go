package analysis

import (
	"calltrace/internal/callgraph"
	"calltrace/internal/exectree"
)

// CallGraph folds the tree into a name-level call graph: one edge per
// distinct caller and callee pair, the root shown as <init>.
func CallGraph(t *exectree.ThreadTree) callgraph.Report {
	var edges []callgraph.Edge
	it := t.BFS()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		if id == t.Root() {
			continue
		}
		edges = append(edges, callgraph.Edge{From: t.Name(t.Parent(id)), To: t.Name(id)})
	}
	return callgraph.Analyze(edges, exectree.InitName)
}
