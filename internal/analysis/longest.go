package analysis

import "calltrace/internal/exectree"

// lenList is a bounded list kept in descending order of Count.
type lenList struct {
	limit int
	data  []NameCount
}

func (l *lenList) push(nc NameCount) {
	if len(l.data) < l.limit {
		l.data = append(l.data, nc)
		sortNameCounts(l.data)
		return
	}
	last := len(l.data) - 1
	if nc.Count > l.data[last].Count {
		l.data[last] = nc
		sortNameCounts(l.data)
	}
}

// LongestInvocations ranks the invocations with the most recorded actions.
// Each entry is one invocation, so a name may appear more than once. The
// root frame takes part as <init>.
func LongestInvocations(t *exectree.ThreadTree) []NameCount {
	l := lenList{limit: TopLimit, data: make([]NameCount, 0, TopLimit)}
	it := t.BFS()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		l.push(NameCount{Name: t.Name(id), Count: len(t.Node(id).Actions)})
	}
	return l.data
}
