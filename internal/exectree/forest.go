package exectree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"calltrace/internal/diag"
	"calltrace/internal/guard"
	"calltrace/internal/progress"
	"calltrace/internal/trace"
)

var ErrNoMain = errors.New("forest has no main thread")

// ForestOptions control a forest build.
type ForestOptions struct {
	Replay Options
	// Jobs bounds concurrent file replays; <= 0 means GOMAXPROCS.
	Jobs     int
	Progress progress.Sink
}

// Forest holds every thread tree of one execution.
type Forest struct {
	Dir string

	trees     []*ThreadTree
	tidIndex  map[uint64]int
	creations map[uint64]ActionPoint
	mainIndex int
	diags     *diag.Bag
	rep       diag.Reporter
}

type threadFile struct {
	path string
	tid  uint64
	main bool
}

type replayResult struct {
	tree *ThreadTree
	err  error
}

// BuildForest replays every thread file in dir. A file that fails to replay
// is reported in Diagnostics and left out; the rest of the forest still
// builds. Only a failure to list dir or a cancelled ctx fail the call.
func BuildForest(ctx context.Context, dir string, opts ForestOptions) (*Forest, error) {
	tracer := opts.Replay.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopePass, "forest", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	f := &Forest{
		Dir:       dir,
		tidIndex:  make(map[uint64]int),
		creations: make(map[uint64]ActionPoint),
		mainIndex: -1,
		diags:     diag.NewBag(0),
	}
	f.rep = diag.NewDedupReporter(diag.BagReporter{Bag: f.diags})

	files, err := f.listThreadFiles()
	if err != nil {
		return nil, err
	}
	span.WithExtra("files", strconv.Itoa(len(files)))

	names := make([]string, len(files))
	for i, tf := range files {
		names[i] = filepath.Base(tf.path)
	}
	progress.Queue(opts.Progress, progress.StageReplay, names)

	results := make([]replayResult, len(files))
	if len(files) > 0 {
		jobs := opts.Jobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(files)))
		for i, tf := range files {
			g.Go(func() error {
				results[i] = replayThread(gctx, tf, names[i], opts, tracer, span.ID())
				if err := results[i].err; errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	f.merge(files, results)
	progress.Emit(opts.Progress, progress.Event{Stage: progress.StageMerge, Status: progress.StatusDone})
	span.WithExtra("trees", strconv.Itoa(len(f.trees))).WithExtra("hits", strconv.Itoa(f.TotalHits()))
	return f, nil
}

func (f *Forest) listThreadFiles() ([]threadFile, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, fmt.Errorf("read guard directory: %w", err)
	}
	files := make([]threadFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(f.Dir, e.Name())
		tid, main, ok := ParseThreadFileName(e.Name())
		if !ok {
			diag.ReportWarning(f.rep, diag.ForestBadFileName, diag.Position{File: path},
				fmt.Sprintf("%q is not <tid> or <tid>_main, skipped", e.Name()))
			continue
		}
		files = append(files, threadFile{path: path, tid: tid, main: main})
	}
	return files, nil
}

func replayThread(ctx context.Context, tf threadFile, name string, opts ForestOptions, tracer trace.Tracer, parent uint64) replayResult {
	span := trace.BeginThread(tracer, name, parent)
	progress.Emit(opts.Progress, progress.Event{File: name, Stage: progress.StageReplay, Status: progress.StatusWorking})

	ro := opts.Replay
	ro.Tracer = tracer
	ro.SpanID = span.ID()
	start := time.Now()
	tree, err := BuildFile(ctx, tf.path, ro)
	elapsed := time.Since(start)

	ev := progress.Event{File: name, Stage: progress.StageReplay, Status: progress.StatusDone, Elapsed: elapsed}
	if err != nil {
		ev.Status, ev.Err = progress.StatusError, err
		progress.Emit(opts.Progress, ev)
		span.End(err.Error())
		return replayResult{err: err}
	}
	tree.TID, tree.Main = tf.tid, tf.main
	if tree.Truncated {
		ev.Status = progress.StatusTruncated
	}
	progress.Emit(opts.Progress, ev)
	span.WithExtra("lines", strconv.Itoa(tree.Lines)).
		WithExtra("nodes", strconv.Itoa(tree.Len())).
		WithExtra("hits", strconv.Itoa(tree.Hits)).
		WithExtra("truncated", strconv.FormatBool(tree.Truncated)).
		End("")
	return replayResult{tree: tree}
}

// merge runs on one goroutine after all replays finished.
func (f *Forest) merge(files []threadFile, results []replayResult) {
	for i, r := range results {
		tf := files[i]
		if r.err != nil {
			f.diags.Add(replayDiagnostic(tf.path, r.err))
			continue
		}
		if prev, dup := f.tidIndex[tf.tid]; dup {
			diag.ReportWarning(f.rep, diag.ForestDuplicateThread, diag.Position{File: tf.path},
				fmt.Sprintf("thread %d already loaded from %s, skipped", tf.tid, f.trees[prev].Label()))
			continue
		}
		idx := len(f.trees)
		f.trees = append(f.trees, r.tree)
		f.tidIndex[tf.tid] = idx

		if tf.main {
			if f.mainIndex < 0 {
				f.mainIndex = idx
			} else {
				diag.ReportWarning(f.rep, diag.ForestMultipleMain, diag.Position{File: tf.path},
					fmt.Sprintf("main thread is already %s", f.trees[f.mainIndex].Label()))
			}
		}
		if r.tree.Truncated {
			f.rep.Report(diag.ForestTruncated, diag.SevInfo, diag.Position{File: tf.path, Line: r.tree.Lines},
				fmt.Sprintf("stopped after %d hits", r.tree.Hits), nil)
		}

		for _, c := range r.tree.Creations() {
			if _, dup := f.creations[c.TID]; dup {
				diag.ReportWarning(f.rep, diag.ForestDuplicateCreation, diag.Position{File: tf.path},
					fmt.Sprintf("thread %d creation already recorded, keeping the first", c.TID))
				continue
			}
			p := c.Point
			p.Tree = idx
			f.creations[c.TID] = p
		}
	}

	if f.mainIndex < 0 {
		diag.ReportWarning(f.rep, diag.ForestNoMain, diag.Position{File: f.Dir}, "no <tid>_main trace file")
	}
	for _, tid := range sortedKeys(f.creations) {
		if _, ok := f.tidIndex[tid]; !ok {
			p := f.creations[tid]
			diag.ReportWarning(f.rep, diag.ForestOrphanThread, diag.Position{File: f.trees[p.Tree].Path},
				fmt.Sprintf("thread %d was created but has no trace file", tid))
		}
	}
	f.diags.Sort()
}

func replayDiagnostic(path string, err error) diag.Diagnostic {
	pos := diag.Position{File: path}
	var re *ReplayError
	if errors.As(err, &re) {
		pos.Line = re.Line
		err = re.Err
	}
	var (
		mismatch *NameMismatchError
		format   *guard.FormatError
	)
	code := diag.IOReadError
	switch {
	case errors.Is(err, ErrStackUnderflow):
		code = diag.GuardStackUnderflow
	case errors.As(err, &mismatch):
		code = diag.GuardNameMismatch
	case errors.As(err, &format):
		code = diag.GuardFormatError
	}
	return diag.NewError(code, pos, err.Error())
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Trees returns the trees in file-name order. Do not modify the slice.
func (f *Forest) Trees() []*ThreadTree { return f.trees }

func (f *Forest) Len() int { return len(f.trees) }

// MainIndex is the index of the main tree, -1 when there is none.
func (f *Forest) MainIndex() int { return f.mainIndex }

func (f *Forest) Main() (*ThreadTree, bool) {
	if f.mainIndex < 0 {
		return nil, false
	}
	return f.trees[f.mainIndex], true
}

// IndexOf maps a thread id to its tree index.
func (f *Forest) IndexOf(tid uint64) (int, bool) {
	idx, ok := f.tidIndex[tid]
	return idx, ok
}

func (f *Forest) TreeByTID(tid uint64) (*ThreadTree, bool) {
	idx, ok := f.IndexOf(tid)
	if !ok {
		return nil, false
	}
	return f.trees[idx], true
}

// CreationPoint locates the ThreadCreate action that spawned tid.
func (f *Forest) CreationPoint(tid uint64) (ActionPoint, bool) {
	p, ok := f.creations[tid]
	return p, ok
}

// Creator returns the tree holding tid's creation and the action itself.
func (f *Forest) Creator(tid uint64) (*ThreadTree, Action, bool) {
	p, ok := f.creations[tid]
	if !ok {
		return nil, Action{}, false
	}
	t := f.trees[p.Tree]
	a, ok := t.ActionAt(p)
	if !ok {
		return nil, Action{}, false
	}
	return t, a, true
}

// CreatedThreads lists every thread id with a recorded creation, ascending.
func (f *Forest) CreatedThreads() []uint64 { return sortedKeys(f.creations) }

// TotalHits sums the per-file hit counters.
func (f *Forest) TotalHits() int {
	n := 0
	for _, t := range f.trees {
		n += t.Hits
	}
	return n
}

// Related reports whether any thread hit the constraint.
func (f *Forest) Related() bool { return f.TotalHits() > 0 }

// TruncatedCount is the number of trees cut short by the hit limit.
func (f *Forest) TruncatedCount() int {
	n := 0
	for _, t := range f.trees {
		if t.Truncated {
			n++
		}
	}
	return n
}

func (f *Forest) Diagnostics() *diag.Bag { return f.diags }

// Err returns the first replay failure, nil if every file built.
func (f *Forest) Err() error {
	d, ok := f.diags.FirstError()
	if !ok {
		return nil
	}
	return fmt.Errorf("%s: %s", d.Primary, d.Message)
}
