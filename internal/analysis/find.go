package analysis

import "calltrace/internal/exectree"

// FindInvocations returns up to limit frames named name in BFS order.
// limit <= 0 means no bound.
func FindInvocations(t *exectree.ThreadTree, name string, limit int) []exectree.NodeID {
	want, ok := t.NameID(name)
	if !ok {
		return nil
	}
	var out []exectree.NodeID
	it := t.BFS()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		n := t.Node(id)
		if n.IsInit() || n.Name != want {
			continue
		}
		out = append(out, id)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// FindForestInvocations searches every tree of f in forest order.
func FindForestInvocations(f *exectree.Forest, name string, limit int) []NodeRef {
	var out []NodeRef
	for _, t := range f.Trees() {
		rest := 0
		if limit > 0 {
			rest = limit - len(out)
		}
		for _, id := range FindInvocations(t, name, rest) {
			out = append(out, NodeRef{Tree: t, ID: id})
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
