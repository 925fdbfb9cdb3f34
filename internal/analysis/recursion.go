package analysis

import (
	"slices"

	"calltrace/internal/exectree"
)

// RecurEntry is one recursion found on a live call stack: Cycle runs from an
// earlier invocation of a function to its repeat (both included), Parent is
// the caller of that earlier invocation.
type RecurEntry struct {
	Cycle  []string `json:"cycle"`
	Parent string   `json:"parent"`
}

func (e RecurEntry) equal(o RecurEntry) bool {
	return e.Parent == o.Parent && slices.Equal(e.Cycle, o.Cycle)
}

// RecursionCycles reports every distinct (cycle, parent) pair in
// depth-first discovery order.
func RecursionCycles(t *exectree.ThreadTree) []RecurEntry {
	var (
		out   []RecurEntry
		stack []string
	)
	t.Walk(func(id exectree.NodeID, path []exectree.NodeID) bool {
		stack = append(stack[:len(path)-1], t.Name(id))
		top := len(stack) - 1
		if top == 0 {
			return true
		}
		name := stack[top]
		// ищем ближайшее сверху предыдущее вхождение; корень не участвует
		for i := top - 1; i >= 1; i-- {
			if stack[i] != name {
				continue
			}
			entry := RecurEntry{
				Cycle:  slices.Clone(stack[i:]),
				Parent: stack[i-1],
			}
			if !slices.ContainsFunc(out, entry.equal) {
				out = append(out, entry)
			}
			break
		}
		return true
	}, nil)
	return out
}
