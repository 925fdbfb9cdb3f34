package analysis

import "calltrace/internal/exectree"

// CallerLimit bounds the callers listed for the hottest function.
const CallerLimit = 5

// MostCalledReport ranks function names by invocation count. Callers holds
// the caller names of the first few invocations of Hottest, in BFS order.
// Empty is set for a tree with no invocations at all.
type MostCalledReport struct {
	Top     []NameCount `json:"top"`
	Hottest string      `json:"hottest,omitempty"`
	Callers []string    `json:"callers,omitempty"`
	Empty   bool        `json:"empty,omitempty"`
}

func MostCalled(t *exectree.ThreadTree) MostCalledReport {
	counts := make(map[string]int)
	it := t.BFS()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		if id == t.Root() {
			continue
		}
		counts[t.Name(id)]++
	}
	if len(counts) == 0 {
		return MostCalledReport{Empty: true}
	}

	r := MostCalledReport{Top: topNames(counts, TopLimit)}
	r.Hottest = r.Top[0].Name
	for _, id := range FindInvocations(t, r.Hottest, CallerLimit) {
		r.Callers = append(r.Callers, t.Name(t.Parent(id)))
	}
	return r
}
