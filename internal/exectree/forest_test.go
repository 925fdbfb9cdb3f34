package exectree_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"calltrace/internal/diag"
	"calltrace/internal/exectree"
	"calltrace/internal/guard"
	"calltrace/internal/progress"
	"calltrace/internal/srcloc"
	"calltrace/internal/trace"
)

func writeThreads(t *testing.T, files map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, lines := range files {
		data := strings.Join(lines, "\n") + "\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func codes(b *diag.Bag, sev diag.Severity) []diag.Code {
	var out []diag.Code
	for _, d := range b.Items() {
		if d.Severity == sev {
			out = append(out, d.Code)
		}
	}
	return out
}

func TestBuildForest(t *testing.T) {
	dir := writeThreads(t, map[string][]string{
		"100_main": {
			"enter main()",
			"Thread Creation:m.c:3:1 200",
			"Thread Creation:m.c:4:1 300",
			"return from main()",
		},
		"200": {
			"enter worker(void *)",
			"return from worker(void *)",
		},
		"201": {
			"return from stray()",
			"enter never()",
		},
		"notes.txt": {"not a trace"},
	})

	var rec progress.Recorder
	f, err := exectree.BuildForest(context.Background(), dir, exectree.ForestOptions{
		Replay:   exectree.Options{VerifyReturns: true},
		Jobs:     2,
		Progress: &rec,
	})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}

	if f.Len() != 2 {
		t.Fatalf("forest has %d trees, want 2", f.Len())
	}
	main, ok := f.Main()
	if !ok || main.TID != 100 || !main.Main || f.MainIndex() != 0 {
		t.Fatalf("main = %v, %v (index %d)", main, ok, f.MainIndex())
	}
	worker, ok := f.TreeByTID(200)
	if !ok || worker.Label() != "200" || worker.Main {
		t.Fatalf("TreeByTID(200) = %v, %v", worker, ok)
	}
	if _, ok := f.TreeByTID(201); ok {
		t.Fatalf("failed thread file must not join the forest")
	}
	if idx, ok := f.IndexOf(200); !ok || f.Trees()[idx] != worker {
		t.Fatalf("IndexOf(200) = %d, %v", idx, ok)
	}

	p, ok := f.CreationPoint(200)
	if !ok || p.Tree != 0 || main.Name(p.Node) != "main" || p.Index != 0 {
		t.Fatalf("CreationPoint(200) = %+v, %v", p, ok)
	}
	creator, a, ok := f.Creator(300)
	if !ok || creator != main || a.Kind != guard.KindThreadCreate || a.NewTID() != 300 {
		t.Fatalf("Creator(300) = %v, %v, %v", creator, a, ok)
	}
	if got := f.CreatedThreads(); len(got) != 2 || got[0] != 200 || got[1] != 300 {
		t.Fatalf("CreatedThreads = %v", got)
	}

	bag := f.Diagnostics()
	if errs := codes(bag, diag.SevError); len(errs) != 1 || errs[0] != diag.GuardStackUnderflow {
		t.Fatalf("errors = %v", errs)
	}
	d, _ := bag.FirstError()
	if d.Primary.Line != 1 || filepath.Base(d.Primary.File) != "201" {
		t.Fatalf("underflow reported at %v", d.Primary)
	}
	warns := codes(bag, diag.SevWarning)
	if len(warns) != 2 {
		t.Fatalf("warnings = %v", warns)
	}
	if f.Err() == nil {
		t.Fatalf("Err() = nil with a failed file")
	}

	last := rec.Last()
	if last["201"] != progress.StatusError || last["200"] != progress.StatusDone {
		t.Fatalf("progress = %v", last)
	}
}

func TestBuildForestNoMain(t *testing.T) {
	dir := writeThreads(t, map[string][]string{
		"5": {"enter f()", "return from f()"},
		"6": {"enter g()"},
	})
	f, err := exectree.BuildForest(context.Background(), dir, exectree.ForestOptions{})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	if _, ok := f.Main(); ok || f.MainIndex() != -1 {
		t.Fatalf("unexpected main tree")
	}
	if w := codes(f.Diagnostics(), diag.SevWarning); len(w) != 1 || w[0] != diag.ForestNoMain {
		t.Fatalf("warnings = %v", w)
	}
	if f.Err() != nil {
		t.Fatalf("Err() = %v", f.Err())
	}
}

func TestBuildForestMultipleMainAndDuplicates(t *testing.T) {
	dir := writeThreads(t, map[string][]string{
		"1_main": {"enter a()", "Thread Creation:a.c:1:1 2"},
		"2_main": {"enter b()", "Thread Creation:b.c:1:1 2"},
		"2":      {"enter c()"},
	})
	f, err := exectree.BuildForest(context.Background(), dir, exectree.ForestOptions{Jobs: 1})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	// files are merged in name order: 1_main, 2, 2_main
	if f.Len() != 2 || f.MainIndex() != 0 {
		t.Fatalf("Len=%d MainIndex=%d", f.Len(), f.MainIndex())
	}
	if tree, _ := f.TreeByTID(2); tree.Label() != "2" {
		t.Fatalf("thread 2 loaded from %s", tree.Label())
	}
	w := codes(f.Diagnostics(), diag.SevWarning)
	if len(w) != 1 || w[0] != diag.ForestDuplicateThread {
		t.Fatalf("warnings = %v", w)
	}
}

func TestBuildForestHitsPerFile(t *testing.T) {
	c := srcloc.Constraint{File: "x.c", Range: [4]uint32{2, 1, 2, 5}}
	hit := "Unconditional Branch Value:x.c:2:1"
	dir := writeThreads(t, map[string][]string{
		"1_main": {"enter a()", hit, hit, hit, "enter late()"},
		"2":      {"enter b()", hit},
		"3":      {"enter c()"},
	})
	f, err := exectree.BuildForest(context.Background(), dir, exectree.ForestOptions{
		Replay: exectree.Options{Constraint: &c, TruncCount: 2},
	})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	if f.TotalHits() != 3 || !f.Related() || f.TruncatedCount() != 1 {
		t.Fatalf("TotalHits=%d TruncatedCount=%d", f.TotalHits(), f.TruncatedCount())
	}
	main, _ := f.Main()
	if _, ok := main.NameID("late"); ok {
		t.Fatalf("main replay continued past the hit limit")
	}
	if info := codes(f.Diagnostics(), diag.SevInfo); len(info) != 1 || info[0] != diag.ForestTruncated {
		t.Fatalf("info = %v", info)
	}
}

func TestBuildForestErrors(t *testing.T) {
	if _, err := exectree.BuildForest(context.Background(), filepath.Join(t.TempDir(), "missing"), exectree.ForestOptions{}); err == nil {
		t.Fatalf("expected error for a missing directory")
	}

	dir := writeThreads(t, map[string][]string{"1_main": {"enter a()"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exectree.BuildForest(ctx, dir, exectree.ForestOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	empty, err := exectree.BuildForest(context.Background(), t.TempDir(), exectree.ForestOptions{})
	if err != nil || empty.Len() != 0 || empty.Related() {
		t.Fatalf("empty forest = %v, %v", empty, err)
	}
}

func TestBuildForestTraceEvents(t *testing.T) {
	dir := writeThreads(t, map[string][]string{
		"1_main": {
			"enter main()",
			"Unconditional Branch Value:a.c:10:2",
			"Unconditional Branch Value:a.c:11:4",
			"Unconditional Branch Value:./a.c:12:7",
			"return from main()",
		},
		"2": {"return from nowhere()"},
	})
	c := srcloc.Constraint{File: "a.c", Range: [4]uint32{10, 2, 12, 1}}
	ring := trace.NewRingTracer(256, trace.LevelDebug)

	f, err := exectree.BuildForest(context.Background(), dir, exectree.ForestOptions{
		Replay: exectree.Options{Constraint: &c, Tracer: ring},
		Jobs:   2,
	})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	if f.TotalHits() != 1 {
		t.Fatalf("hits = %d", f.TotalHits())
	}

	var hit bool
	near := map[int]string{}
	for _, ev := range ring.ThreadSnapshot("1_main") {
		switch ev.Name {
		case "hit":
			hit = ev.Line == 2
		case "near-hit":
			near[ev.Line] = ev.Detail
		}
	}
	if !hit {
		t.Fatalf("hit point missing or misplaced")
	}
	if near[3] != "a.c:11:4 in range" || near[4] != "./a.c:12:7" {
		t.Fatalf("near-hit points = %q", near)
	}
	if got := ring.FailedThreads(); len(got) != 1 || got[0] != "2" {
		t.Fatalf("FailedThreads = %v", got)
	}
}
