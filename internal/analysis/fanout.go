package analysis

import "calltrace/internal/exectree"

// WidestFanOut ranks names by the number of direct callees seen at the
// name's first invocation in BFS order. Later invocations are ignored.
func WidestFanOut(t *exectree.ThreadTree) []NameCount {
	first := make(map[string]int)
	it := t.BFS()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		if id == t.Root() {
			continue
		}
		name := t.Name(id)
		if _, seen := first[name]; seen {
			continue
		}
		first[name] = t.Node(id).CallCount()
	}
	return topNames(first, TopLimit)
}
