package analysis

import (
	"sort"

	"calltrace/internal/srcloc"
)

// TopLimit is the length of every ranked report.
const TopLimit = 10

// NameCount pairs a function name with a measured count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LocCount pairs a source location with a tally.
type LocCount struct {
	Loc   srcloc.Loc `json:"loc"`
	Count int        `json:"count"`
}

func sortNameCounts(s []NameCount) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Count != s[j].Count {
			return s[i].Count > s[j].Count
		}
		return s[i].Name < s[j].Name
	})
}

// topNames ranks a name tally and keeps the first limit entries.
func topNames(counts map[string]int, limit int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, NameCount{Name: name, Count: c})
	}
	sortNameCounts(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func topLocs(counts map[srcloc.Loc]int, limit int) []LocCount {
	out := make([]LocCount, 0, len(counts))
	for loc, c := range counts {
		out = append(out, LocCount{Loc: loc, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Loc.Compare(out[j].Loc) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
