package exectree

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"calltrace/internal/guard"
	"calltrace/internal/srcloc"
	"calltrace/internal/trace"
)

const (
	// MaxLineSize bounds a single trace line; demangled C++ names get long.
	MaxLineSize = 64 << 20
	// ctxCheckEvery is how often (in lines) replay looks at ctx.
	ctxCheckEvery = 4096
)

var ErrStackUnderflow = errors.New("return past the root frame")

// NameMismatchError is a return/unwind whose name differs from the open frame.
type NameMismatchError struct {
	Kind guard.Kind
	Open string
	Got  string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("%s from %s while %s is open", e.Kind, e.Got, e.Open)
}

// ReplayError pins a replay failure to a trace file and 1-based line.
type ReplayError struct {
	Path string
	Line int
	Err  error
}

func (e *ReplayError) Error() string {
	if e.Line <= 0 {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// Options control replay of one thread file.
type Options struct {
	// Constraint enables hit counting; nil disables it.
	Constraint *srcloc.Constraint
	// TruncCount stops replay once this many hits were seen; 0 never stops.
	// The counter belongs to one file.
	TruncCount int
	// VerifyReturns rejects a return/unwind that names another function.
	VerifyReturns bool

	Tracer trace.Tracer
	// SpanID is the parent of line-scope trace points.
	SpanID uint64
}

// Builder replays guard lines into a ThreadTree.
type Builder struct {
	opts  Options
	tree  *ThreadTree
	cur   NodeID
	depth int
	done  bool
}

func NewBuilder(path string, opts Options) *Builder {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	return &Builder{
		opts: opts,
		tree: newThreadTree(path),
		cur:  RootID,
	}
}

// Feed replays one line. stop is true once the hit limit was reached;
// further lines are ignored. Errors are *ReplayError and fatal for the file.
func (b *Builder) Feed(line string) (stop bool, err error) {
	if b.done {
		return true, nil
	}
	b.tree.Lines++
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return false, nil
	}

	res, err := guard.Classify(line)
	if err != nil {
		return false, b.fail(err)
	}
	if res.Skipped > 0 {
		trace.LinePoint(b.opts.Tracer, b.tree.Label(), b.tree.Lines, "skip",
			fmt.Sprintf("dropped %d bytes", res.Skipped), b.opts.SpanID)
	}
	if res.HasEvent {
		if err := b.apply(b.canonical(res.Event)); err != nil {
			return false, b.fail(err)
		}
	}
	if res.HasValueHit && b.opts.Constraint != nil {
		return b.countHit(res.ValueHit), nil
	}
	return false, nil
}

func (b *Builder) fail(err error) error {
	return &ReplayError{Path: b.tree.Path, Line: b.tree.Lines, Err: err}
}

func (b *Builder) countHit(loc srcloc.Loc) bool {
	c := b.opts.Constraint
	if !c.IsHit(loc) {
		if c.NearHit(loc) {
			detail := loc.String()
			if loc.Inside(*c) {
				detail += " in range"
			}
			trace.LinePoint(b.opts.Tracer, b.tree.Label(), b.tree.Lines, "near-hit", detail, b.opts.SpanID)
		}
		return false
	}
	b.tree.Hits++
	trace.LinePoint(b.opts.Tracer, b.tree.Label(), b.tree.Lines, "hit", loc.String(), b.opts.SpanID)
	if b.opts.TruncCount > 0 && b.tree.Hits >= b.opts.TruncCount {
		b.tree.Truncated = true
		b.done = true
		return true
	}
	return false
}

// canonical swaps line-backed strings for interned copies.
func (b *Builder) canonical(ev guard.Event) guard.Event {
	ev.Name = b.tree.names.Canonical(ev.Name)
	ev.At.File = b.tree.names.Canonical(ev.At.File)
	ev.To.File = b.tree.names.Canonical(ev.To.File)
	return ev
}

func (b *Builder) apply(ev guard.Event) error {
	if act := (Action{Event: ev}); act.IsExit() {
		return b.exit(act)
	}
	switch ev.Kind {
	case guard.KindCall:
		idx := len(b.tree.nodes.get(b.cur).Actions)
		child, err := b.tree.nodes.allocate(FuncNode{
			Name:      b.tree.names.Intern(ev.Name),
			Parent:    b.cur,
			ParentIdx: idx,
			Depth:     b.depth + 1,
		})
		if err != nil {
			return fmt.Errorf("too many frames: %w", err)
		}
		// allocate may have moved the arena
		cur := b.tree.nodes.get(b.cur)
		cur.Actions = append(cur.Actions, Action{Event: ev, Child: child})
		b.cur = child
		b.depth++
		if b.depth > b.tree.MaxDepth {
			b.tree.MaxDepth = b.depth
		}

	case guard.KindThreadCreate:
		cur := b.tree.nodes.get(b.cur)
		b.tree.creations[ev.NewTID()] = ActionPoint{Tree: -1, Node: b.cur, Index: len(cur.Actions)}
		cur.Actions = append(cur.Actions, Action{Event: ev})

	default:
		cur := b.tree.nodes.get(b.cur)
		cur.Actions = append(cur.Actions, Action{Event: ev})
	}
	return nil
}

// exit closes the current frame with a return or unwind.
func (b *Builder) exit(act Action) error {
	cur := b.tree.nodes.get(b.cur)
	if cur.IsInit() {
		return fmt.Errorf("%w: %s from %s", ErrStackUnderflow, act.Kind, act.Name)
	}
	if b.opts.VerifyReturns {
		if open := b.tree.names.MustLookup(cur.Name); open != act.Name {
			return &NameMismatchError{Kind: act.Kind, Open: open, Got: act.Name}
		}
	}
	cur.Actions = append(cur.Actions, act)
	b.cur = cur.Parent
	b.depth--
	return nil
}

// Cursor is the frame the next action goes to.
func (b *Builder) Cursor() NodeID { return b.cur }

// Depth is the number of open frames below the root.
func (b *Builder) Depth() int { return b.depth }

// Tree returns the tree built so far. The builder must not be fed afterwards.
func (b *Builder) Tree() *ThreadTree {
	b.done = true
	return b.tree
}

// BuildReader replays every line of r; path is used for errors and labels.
func BuildReader(ctx context.Context, r io.Reader, path string, opts Options) (*ThreadTree, error) {
	b := NewBuilder(path, opts)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for sc.Scan() {
		if b.tree.Lines%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		stop, err := b.Feed(sc.Text())
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ReplayError{Path: path, Line: b.tree.Lines + 1, Err: err}
	}
	return b.Tree(), nil
}

// BuildFile replays one thread trace file.
func BuildFile(ctx context.Context, path string, opts Options) (*ThreadTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReplayError{Path: path, Err: err}
	}
	defer f.Close()
	return BuildReader(ctx, f, path, opts)
}
