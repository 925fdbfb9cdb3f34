package main

import (
	"context"
	"path/filepath"
	"testing"

	"calltrace/internal/exectree"
)

const guardsDir = "../../testdata/guards"

func TestClassifyFile(t *testing.T) {
	stats, err := classifyFile(filepath.Join(guardsDir, "exec_0001", "4242_main"), 10)
	if err != nil {
		t.Fatalf("classifyFile: %v", err)
	}
	if stats.Lines != 20 || stats.Malformed != 0 || stats.Blank != 0 {
		t.Fatalf("unexpected line counts: %+v", stats)
	}
	want := map[string]int{
		"call":          5,
		"return":        5,
		"jump":          3,
		"loop":          3,
		"recur_lock":    2,
		"thread_create": 1,
	}
	for kind, n := range want {
		if stats.Kinds[kind] != n {
			t.Fatalf("%s: got %d, want %d", kind, stats.Kinds[kind], n)
		}
	}
	if stats.ValueHits != 2 {
		t.Fatalf("value hits: got %d, want 2", stats.ValueHits)
	}
}

func TestClassifyFileMissing(t *testing.T) {
	if _, err := classifyFile(filepath.Join(t.TempDir(), "nope"), 1); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSelectTrees(t *testing.T) {
	f, err := exectree.BuildForest(context.Background(), filepath.Join(guardsDir, "exec_0001"), exectree.ForestOptions{Jobs: 1})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	tests := []struct {
		sel     string
		want    int
		wantErr bool
	}{
		{sel: "", want: 2},
		{sel: "all", want: 2},
		{sel: "main", want: 1},
		{sel: "4243", want: 1},
		{sel: "77", wantErr: true},
		{sel: "first", wantErr: true},
	}
	for _, tt := range tests {
		trees, err := selectTrees(f, tt.sel)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("selectTrees(%q): expected error", tt.sel)
			}
			continue
		}
		if err != nil || len(trees) != tt.want {
			t.Fatalf("selectTrees(%q) = %d trees, %v; want %d", tt.sel, len(trees), err, tt.want)
		}
	}
	mainTrees, _ := selectTrees(f, "main")
	if mainTrees[0].TID != 4242 {
		t.Fatalf("main tid %d", mainTrees[0].TID)
	}
}

func TestThreadFileNames(t *testing.T) {
	names, err := threadFileNames(filepath.Join(guardsDir, "exec_0001"))
	if err != nil {
		t.Fatalf("threadFileNames: %v", err)
	}
	if len(names) != 2 || names[0] != "4242_main" || names[1] != "4243" {
		t.Fatalf("unexpected names: %v", names)
	}
}
