package callgraph

import (
	"sort"
)

type FuncID uint32

type Index struct {
	NameToID map[string]FuncID
	IDToName []string
}

// уникальные имена, sort.Strings, ID по порядку
func BuildIndex(names []string) Index {
	uniq := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name != "" {
			uniq[name] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(uniq))
	for name := range uniq {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	nameToID := make(map[string]FuncID, len(sorted))
	for i, name := range sorted {
		nameToID[name] = FuncID(i)
	}

	return Index{
		NameToID: nameToID,
		IDToName: sorted,
	}
}

func (idx Index) Name(id FuncID) string {
	if int(id) >= len(idx.IDToName) {
		return ""
	}
	return idx.IDToName[int(id)]
}

func (idx Index) Names(ids []FuncID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.Name(id)
	}
	return out
}
