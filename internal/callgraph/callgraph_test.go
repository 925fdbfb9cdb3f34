package callgraph

import (
	"reflect"
	"testing"
)

func batchesToNames(idx Index, batches [][]FuncID) [][]string {
	out := make([][]string, len(batches))
	for i, batch := range batches {
		out[i] = idx.Names(batch)
	}
	return out
}

func TestBuildIndexSortsAndDedups(t *testing.T) {
	idx := BuildIndex([]string{"parse", "main", "", "parse", "emit"})

	want := []string{"emit", "main", "parse"}
	if !reflect.DeepEqual(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
	for i, name := range want {
		if id, ok := idx.NameToID[name]; !ok || int(id) != i {
			t.Fatalf("NameToID[%q] = %v, want %d", name, id, i)
		}
	}
	if got := idx.Name(FuncID(7)); got != "" {
		t.Fatalf("Name(out of range) = %q", got)
	}
}

func TestBuildGraphDedupsAndSplitsSelfLoops(t *testing.T) {
	idx := BuildIndex([]string{"a", "b", "c"})
	g := BuildGraph(idx, []Edge{
		{From: "a", To: "c"},
		{From: "a", To: "b"},
		{From: "a", To: "b"},
		{From: "b", To: "b"},
		{From: "b", To: "ghost"},
	})

	if got := idx.Names(g.Edges[0]); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("edges of a = %v", got)
	}
	if len(g.Edges[1]) != 0 {
		t.Fatalf("edges of b = %v, want none", idx.Names(g.Edges[1]))
	}
	if !reflect.DeepEqual(g.Indeg, []int{0, 1, 1}) {
		t.Fatalf("Indeg = %v", g.Indeg)
	}
	if got := idx.Names(g.SelfLoops); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("SelfLoops = %v", got)
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2", g.EdgeCount())
	}
}

func TestToposortKahnLevels(t *testing.T) {
	idx := BuildIndex([]string{"main", "parse", "emit", "read"})
	g := BuildGraph(idx, []Edge{
		{From: "main", To: "parse"},
		{From: "main", To: "emit"},
		{From: "parse", To: "read"},
		{From: "emit", To: "read"},
	})
	topo := ToposortKahn(g)

	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", idx.Names(topo.Cycles))
	}
	want := [][]string{{"main"}, {"emit", "parse"}, {"read"}}
	if got := batchesToNames(idx, topo.Batches); !reflect.DeepEqual(got, want) {
		t.Fatalf("Batches = %v, want %v", got, want)
	}
	if len(topo.Order) != 4 {
		t.Fatalf("Order = %v", idx.Names(topo.Order))
	}
}

func TestToposortKahnMutualRecursion(t *testing.T) {
	idx := BuildIndex([]string{"main", "f", "g", "leaf"})
	g := BuildGraph(idx, []Edge{
		{From: "main", To: "f"},
		{From: "f", To: "g"},
		{From: "g", To: "f"},
		{From: "g", To: "leaf"},
	})
	topo := ToposortKahn(g)

	if !topo.Cyclic {
		t.Fatalf("expected a cycle")
	}
	if got := idx.Names(topo.Cycles); !reflect.DeepEqual(got, []string{"f", "g", "leaf"}) {
		t.Fatalf("Cycles = %v", got)
	}
	if got := batchesToNames(idx, topo.Batches); !reflect.DeepEqual(got, [][]string{{"main"}}) {
		t.Fatalf("Batches = %v", got)
	}
}

func TestAnalyze(t *testing.T) {
	r := Analyze([]Edge{
		{From: "<init>", To: "main"},
		{From: "main", To: "fact"},
		{From: "fact", To: "fact"},
	}, "lonely")

	if r.Functions != 4 {
		t.Fatalf("Functions = %d, want 4", r.Functions)
	}
	if r.Edges != 2 {
		t.Fatalf("Edges = %d, want 2", r.Edges)
	}
	want := [][]string{{"<init>", "lonely"}, {"main"}, {"fact"}}
	if !reflect.DeepEqual(r.Levels, want) {
		t.Fatalf("Levels = %v, want %v", r.Levels, want)
	}
	if r.Recursive != nil {
		t.Fatalf("Recursive = %v, want none", r.Recursive)
	}
	if !reflect.DeepEqual(r.SelfRecursive, []string{"fact"}) {
		t.Fatalf("SelfRecursive = %v", r.SelfRecursive)
	}
}
