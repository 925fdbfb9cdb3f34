package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"calltrace/internal/exectree"
	"calltrace/internal/progress"
)

// threadFileNames lists the trace files BuildForest will replay, for the
// progress view.
func threadFileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read guard directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, _, ok := exectree.ParseThreadFileName(e.Name()); ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return progress.DisplayNames(paths, dir), nil
}

func buildForest(ctx context.Context, env *commandEnv, dir string, s settings) (*exectree.Forest, error) {
	opts := s.forestOptions()
	opts.Progress = env.tally
	idx := env.timer.Begin("forest")

	var (
		f   *exectree.Forest
		err error
	)
	if env.useUI {
		var names []string
		names, err = threadFileNames(dir)
		if err == nil {
			f, err = runWithUI(ctx, "replaying "+filepath.Base(dir), names,
				func(ctx context.Context, sink progress.Sink) (*exectree.Forest, error) {
					o := opts
					o.Progress = progress.Multi(sink, env.tally)
					return exectree.BuildForest(ctx, dir, o)
				})
		}
	} else {
		f, err = exectree.BuildForest(ctx, dir, opts)
	}
	if err != nil {
		env.timer.End(idx, "failed")
		return nil, err
	}
	env.timer.End(idx, fmt.Sprintf("%d trees, %d hits", f.Len(), f.TotalHits()))
	return f, nil
}

// selectTrees resolves --tree: all, main, or a thread id.
func selectTrees(f *exectree.Forest, sel string) ([]*exectree.ThreadTree, error) {
	switch sel {
	case "", "all":
		return f.Trees(), nil
	case "main":
		t, ok := f.Main()
		if !ok {
			return nil, exectree.ErrNoMain
		}
		return []*exectree.ThreadTree{t}, nil
	}
	tid, err := strconv.ParseUint(sel, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --tree value %q (expected all|main|<tid>)", sel)
	}
	t, ok := f.TreeByTID(tid)
	if !ok {
		return nil, fmt.Errorf("no thread %d in forest", tid)
	}
	return []*exectree.ThreadTree{t}, nil
}

var errNothingBuilt = errors.New("no thread tree could be built")
