package analysis

import (
	"calltrace/internal/exectree"
	"calltrace/internal/guard"
	"calltrace/internal/srcloc"
)

// HotLoopHeaders tallies loop guard actions by loop header.
func HotLoopHeaders(t *exectree.ThreadTree) []LocCount {
	counts := make(map[srcloc.Loc]int)
	it := t.BFS()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		for _, a := range t.Node(id).Actions {
			if a.Kind == guard.KindLoop {
				counts[a.Header()]++
			}
		}
	}
	return topLocs(counts, TopLimit)
}
