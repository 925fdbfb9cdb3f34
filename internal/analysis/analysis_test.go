package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"calltrace/internal/analysis"
	"calltrace/internal/exectree"
	"calltrace/internal/srcloc"
	"calltrace/internal/testkit"
)

func build(t *testing.T, lines ...string) *exectree.ThreadTree {
	t.Helper()
	text := strings.Join(lines, "\n")
	if text != "" {
		text += "\n"
	}
	tree, err := exectree.BuildReader(context.Background(), strings.NewReader(text), "mem", exectree.Options{VerifyReturns: true})
	if err != nil {
		t.Fatalf("BuildReader: %v", err)
	}
	if err := testkit.CheckTree(tree); err != nil {
		t.Fatalf("tree invariants: %v", err)
	}
	return tree
}

func call(name string, body ...string) []string {
	out := []string{"enter " + name + "()"}
	out = append(out, body...)
	return append(out, "return from "+name+"()")
}

func seq(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func jumps(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Merge Br Guard:a.c:%d:1 1 a.c:%d:2", i+1, i+1)
	}
	return out
}

func TestRecursionSingleCycle(t *testing.T) {
	tree := build(t,
		"enter f()",
		"enter g()",
		"enter f()",
		"return from f()",
		"return from g()",
		"return from f()",
	)
	got := analysis.RecursionCycles(tree)
	want := []analysis.RecurEntry{{Cycle: []string{"f", "g", "f"}, Parent: exectree.InitName}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RecursionCycles = %+v, want %+v", got, want)
	}
}

func TestRecursionDedupAndInnermost(t *testing.T) {
	tree := build(t, call("main",
		seq(
			call("f", call("f")...),
			call("f", call("f")...),
			call("g", call("h", call("g", call("h")...)...)...),
		)...)...)

	got := analysis.RecursionCycles(tree)
	want := []analysis.RecurEntry{
		{Cycle: []string{"f", "f"}, Parent: "main"},
		{Cycle: []string{"g", "h", "g"}, Parent: "main"},
		{Cycle: []string{"h", "g", "h"}, Parent: "g"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RecursionCycles = %+v, want %+v", got, want)
	}
}

func TestRecursionNone(t *testing.T) {
	tree := build(t, call("main", seq(call("a"), call("b"))...)...)
	if got := analysis.RecursionCycles(tree); len(got) != 0 {
		t.Fatalf("RecursionCycles = %+v, want none", got)
	}
}

func TestLongestInvocations(t *testing.T) {
	tree := build(t, call("main", seq(call("a", jumps(2)...), call("b"))...)...)

	got := analysis.LongestInvocations(tree)
	want := []analysis.NameCount{
		{Name: "a", Count: 3},
		{Name: "main", Count: 3},
		{Name: exectree.InitName, Count: 1},
		{Name: "b", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LongestInvocations = %+v, want %+v", got, want)
	}
}

func TestLongestInvocationsCapacity(t *testing.T) {
	var body []string
	for i := range 12 {
		body = append(body, call(fmt.Sprintf("f%02d", i), jumps(i)...)...)
	}
	tree := build(t, call("main", body...)...)

	got := analysis.LongestInvocations(tree)
	if len(got) != analysis.TopLimit {
		t.Fatalf("len = %d, want %d", len(got), analysis.TopLimit)
	}
	if got[0] != (analysis.NameCount{Name: "main", Count: 13}) {
		t.Fatalf("first = %+v", got[0])
	}
	for i := 1; i < len(got); i++ {
		want := analysis.NameCount{Name: fmt.Sprintf("f%02d", 12-i), Count: 13 - i}
		if got[i] != want {
			t.Fatalf("got[%d] = %+v, want %+v", i, got[i], want)
		}
	}
}

func TestLongestInvocationsKeepsEarlierOnTie(t *testing.T) {
	var body []string
	for i := range 12 {
		body = append(body, call(fmt.Sprintf("l%02d", i))...)
	}
	tree := build(t, call("main", body...)...)

	got := analysis.LongestInvocations(tree)
	want := []analysis.NameCount{{Name: "main", Count: 13}, {Name: exectree.InitName, Count: 1}}
	for i := range 8 {
		want = append(want, analysis.NameCount{Name: fmt.Sprintf("l%02d", i), Count: 1})
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LongestInvocations = %+v, want %+v", got, want)
	}
}

func TestMostCalled(t *testing.T) {
	parse := call("parse", seq(call("read"), call("read"))...)
	tree := build(t, call("main", seq(parse, parse, parse, call("emit"))...)...)

	r := analysis.MostCalled(tree)
	if r.Empty {
		t.Fatalf("unexpected empty report")
	}
	wantTop := []analysis.NameCount{
		{Name: "read", Count: 6},
		{Name: "parse", Count: 3},
		{Name: "emit", Count: 1},
		{Name: "main", Count: 1},
	}
	if !reflect.DeepEqual(r.Top, wantTop) {
		t.Fatalf("Top = %+v, want %+v", r.Top, wantTop)
	}
	if r.Hottest != "read" {
		t.Fatalf("Hottest = %q", r.Hottest)
	}
	wantCallers := []string{"parse", "parse", "parse", "parse", "parse"}
	if !reflect.DeepEqual(r.Callers, wantCallers) {
		t.Fatalf("Callers = %v, want %v", r.Callers, wantCallers)
	}
}

func TestEmptyTree(t *testing.T) {
	tree := build(t)

	if r := analysis.MostCalled(tree); !r.Empty || len(r.Top) != 0 {
		t.Fatalf("MostCalled on empty tree = %+v", r)
	}
	if got := analysis.WidestFanOut(tree); len(got) != 0 {
		t.Fatalf("WidestFanOut = %+v", got)
	}
	if got := analysis.RecursionCycles(tree); len(got) != 0 {
		t.Fatalf("RecursionCycles = %+v", got)
	}
	if got := analysis.HotLoopHeaders(tree); len(got) != 0 {
		t.Fatalf("HotLoopHeaders = %+v", got)
	}
	got := analysis.LongestInvocations(tree)
	if len(got) != 1 || got[0].Name != exectree.InitName || got[0].Count != 0 {
		t.Fatalf("LongestInvocations = %+v", got)
	}
}

func TestHotLoopHeaders(t *testing.T) {
	tree := build(t, call("main",
		"Loop Hit:b.c:5:3 at count1",
		"Loop Hit:b.c:5:3 at count2",
		"Out of Loop:b.c:5:3 b.c:9:1 at count2",
		"Loop Hit:a.c:7:3 at count1",
		"Loop Limit Exceed:a.c:7:3 at count 100",
		"Loop end without loop start:c.c:1:1 c.c:2:1",
	)...)

	got := analysis.HotLoopHeaders(tree)
	want := []analysis.LocCount{
		{Loc: srcloc.MustParse("b.c:5:3"), Count: 3},
		{Loc: srcloc.MustParse("a.c:7:3"), Count: 2},
		{Loc: srcloc.MustParse("c.c:1:1"), Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("HotLoopHeaders = %+v, want %+v", got, want)
	}
}

func TestWidestFanOutFirstOccurrence(t *testing.T) {
	tree := build(t, call("main", seq(
		call("x", seq(call("y"), call("y"))...),
		call("x", seq(call("y"), call("y"), call("y"))...),
	)...)...)

	got := analysis.WidestFanOut(tree)
	want := []analysis.NameCount{
		{Name: "main", Count: 2},
		{Name: "x", Count: 2},
		{Name: "y", Count: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WidestFanOut = %+v, want %+v", got, want)
	}
}

func TestLCA(t *testing.T) {
	tree := build(t, call("main", seq(
		call("parse", call("read")...),
		call("emit", call("read")...),
	)...)...)

	reads := analysis.FindInvocations(tree, "read", 0)
	if len(reads) != 2 {
		t.Fatalf("FindInvocations(read) = %v", reads)
	}
	ref := func(id exectree.NodeID) analysis.NodeRef { return analysis.NodeRef{Tree: tree, ID: id} }

	got, err := analysis.LCA(ref(reads[0]), ref(reads[1]))
	if err != nil {
		t.Fatalf("LCA: %v", err)
	}
	if got.Tree != tree || got.Name() != "main" {
		t.Fatalf("LCA = %s, want main", got.Name())
	}
	if path := analysis.CallPath(tree, got.ID); !reflect.DeepEqual(path, []string{exectree.InitName, "main"}) {
		t.Fatalf("CallPath = %v", path)
	}

	parse := analysis.FindInvocations(tree, "parse", 1)
	got, err = analysis.LCA(ref(parse[0]), ref(reads[0]))
	if err != nil || got.Name() != "main" {
		t.Fatalf("LCA(parse, read) = %s, %v; want main", got.Name(), err)
	}

	main := analysis.FindInvocations(tree, "main", 1)
	got, err = analysis.LCA(ref(main[0]), ref(reads[1]))
	if err != nil || got.ID != tree.Root() {
		t.Fatalf("LCA(main, read) = %v, %v; want root", got.ID, err)
	}

	if _, err := analysis.LCA(ref(tree.Root()), ref(reads[0])); !errors.Is(err, analysis.ErrNoCommonAncestor) {
		t.Fatalf("LCA with root: err = %v", err)
	}
	if _, err := analysis.LCA(ref(exectree.NodeID(999)), ref(reads[0])); !errors.Is(err, analysis.ErrInvalidRef) {
		t.Fatalf("LCA with bad id: err = %v", err)
	}
}

func TestLCADifferentTrees(t *testing.T) {
	a := build(t, call("main", call("f")...)...)
	b := build(t, call("main", call("f")...)...)

	fa := analysis.FindInvocations(a, "f", 1)
	fb := analysis.FindInvocations(b, "f", 1)
	_, err := analysis.LCA(analysis.NodeRef{Tree: a, ID: fa[0]}, analysis.NodeRef{Tree: b, ID: fb[0]})
	if !errors.Is(err, analysis.ErrNoCommonAncestor) {
		t.Fatalf("err = %v, want ErrNoCommonAncestor", err)
	}
}

func TestFindInvocationsLimit(t *testing.T) {
	tree := build(t, call("main", seq(call("f"), call("f"), call("f"))...)...)
	if got := analysis.FindInvocations(tree, "f", 2); len(got) != 2 {
		t.Fatalf("limit 2: %v", got)
	}
	if got := analysis.FindInvocations(tree, "f", 0); len(got) != 3 {
		t.Fatalf("no limit: %v", got)
	}
	if got := analysis.FindInvocations(tree, "missing", 0); got != nil {
		t.Fatalf("missing: %v", got)
	}
	if got := analysis.FindInvocations(tree, exectree.InitName, 0); got != nil {
		t.Fatalf("root must not be found by name: %v", got)
	}
}

func writeThread(t *testing.T, dir, name string, lines []string) {
	t.Helper()
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestForestQueries(t *testing.T) {
	dir := t.TempDir()
	writeThread(t, dir, "100_main", call("main", seq(call("work"), []string{"Thread Creation:m.c:9:5 200"})...))
	writeThread(t, dir, "200", call("worker", seq(call("work"), call("work"))...))

	f, err := exectree.BuildForest(context.Background(), dir, exectree.ForestOptions{Jobs: 2})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}

	refs := analysis.FindForestInvocations(f, "work", 0)
	if len(refs) != 3 {
		t.Fatalf("FindForestInvocations = %d refs, want 3", len(refs))
	}
	if refs[0].Tree.TID != 100 || refs[1].Tree.TID != 200 {
		t.Fatalf("unexpected tree order: %d, %d", refs[0].Tree.TID, refs[1].Tree.TID)
	}
	if got := analysis.FindForestInvocations(f, "work", 2); len(got) != 2 {
		t.Fatalf("limited = %d refs, want 2", len(got))
	}
	if _, err := analysis.LCA(refs[0], refs[1]); !errors.Is(err, analysis.ErrNoCommonAncestor) {
		t.Fatalf("cross-tree LCA: err = %v", err)
	}
	got, err := analysis.LCA(refs[1], refs[2])
	if err != nil || got.Name() != "worker" {
		t.Fatalf("LCA = %s, %v; want worker", got.Name(), err)
	}

	sums, err := analysis.SummarizeForest(context.Background(), f, 0)
	if err != nil {
		t.Fatalf("SummarizeForest: %v", err)
	}
	if len(sums) != 2 || sums[0].Tree != "100_main" || !sums[0].Main || sums[1].TID != 200 {
		t.Fatalf("summaries = %+v", sums)
	}
	if sums[0].Actions.ThreadCreates != 1 {
		t.Fatalf("thread creates = %d", sums[0].Actions.ThreadCreates)
	}
}

func TestSummarizeForestCancelled(t *testing.T) {
	dir := t.TempDir()
	writeThread(t, dir, "1_main", call("main"))
	f, err := exectree.BuildForest(context.Background(), dir, exectree.ForestOptions{})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := analysis.SummarizeForest(ctx, f, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCountActions(t *testing.T) {
	tree := build(t, call("main", seq(
		jumps(2),
		[]string{"Merge Br Guard:a.c:9:1 0 a.c:9:2"},
		[]string{"Loop Hit:a.c:1:1 at count1", "Recur Lock locked", "Recur Lock released"},
		[]string{"Thread Creation:a.c:3:3 7"},
		call("f"),
	)...)...)

	got := analysis.CountActions(tree)
	want := analysis.ActionCounts{
		Calls:         2,
		Returns:       2,
		Jumps:         3,
		TakenJumps:    2,
		Loops:         1,
		RecurLocks:    2,
		ThreadCreates: 1,
	}
	if got != want {
		t.Fatalf("CountActions = %+v, want %+v", got, want)
	}
	if got.Total() != 11 {
		t.Fatalf("Total = %d, want 11", got.Total())
	}
}

func TestCallGraph(t *testing.T) {
	tree := build(t, call("main", seq(
		call("fact", call("fact", call("fact")...)...),
		call("even", call("odd", call("even")...)...),
	)...)...)

	r := analysis.CallGraph(tree)
	wantLevels := [][]string{{exectree.InitName}, {"main"}, {"fact"}}
	if !reflect.DeepEqual(r.Levels, wantLevels) {
		t.Fatalf("Levels = %v, want %v", r.Levels, wantLevels)
	}
	if !reflect.DeepEqual(r.Recursive, []string{"even", "odd"}) {
		t.Fatalf("Recursive = %v", r.Recursive)
	}
	if !reflect.DeepEqual(r.SelfRecursive, []string{"fact"}) {
		t.Fatalf("SelfRecursive = %v", r.SelfRecursive)
	}
}

func TestAnalysesAreDeterministic(t *testing.T) {
	parse := call("parse", seq(call("read"), []string{"Loop Hit:p.c:3:3 at count1"}, call("parse", call("read")...))...)
	tree := build(t, call("main", seq(parse, parse, call("emit", jumps(3)...))...)...)

	first := analysis.Summarize(tree)
	for range 3 {
		if again := analysis.Summarize(tree); !reflect.DeepEqual(first, again) {
			t.Fatalf("Summarize differs between runs:\n%+v\n%+v", first, again)
		}
	}
	if first.Nodes != tree.Len() || first.MaxDepth != 4 {
		t.Fatalf("Nodes = %d, MaxDepth = %d", first.Nodes, first.MaxDepth)
	}
}
