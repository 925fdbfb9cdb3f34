package exectree

import (
	"path/filepath"
	"sort"

	"calltrace/internal/source"
)

// InitName is how the root frame is shown in reports.
const InitName = "<init>"

// ThreadTree is the call tree of one thread, built from one trace file.
// It is read-only once the builder returns it.
type ThreadTree struct {
	TID  uint64
	Main bool
	Path string

	MaxDepth  int
	Hits      int
	Truncated bool
	Lines     int

	nodes     arena[FuncNode]
	names     *source.Interner
	creations map[uint64]ActionPoint
}

func newThreadTree(path string) *ThreadTree {
	t := &ThreadTree{
		Path:      path,
		names:     source.NewInterner(),
		creations: make(map[uint64]ActionPoint),
	}
	// корень всегда первый в арене, ошибки переполнения тут быть не может
	_, _ = t.nodes.allocate(FuncNode{})
	return t
}

// Root returns the Init frame.
func (t *ThreadTree) Root() NodeID { return RootID }

// Len returns the number of frames, root included.
func (t *ThreadTree) Len() int { return t.nodes.len() }

// Node returns the frame for id, or nil.
func (t *ThreadTree) Node(id NodeID) *FuncNode { return t.nodes.get(id) }

// Label is the trace file name, e.g. "4242_main".
func (t *ThreadTree) Label() string {
	if t.Path == "" {
		return "<memory>"
	}
	return filepath.Base(t.Path)
}

// Name returns the function name of a frame; the root is InitName.
func (t *ThreadTree) Name(id NodeID) string {
	n := t.nodes.get(id)
	if n == nil {
		return ""
	}
	if n.IsInit() {
		return InitName
	}
	return t.names.MustLookup(n.Name)
}

// NameID resolves a function name to the id used in FuncNode.Name.
func (t *ThreadTree) NameID(name string) (source.StringID, bool) {
	return t.names.Find(name)
}

// Parent returns the caller frame, NoNodeID for the root.
func (t *ThreadTree) Parent(id NodeID) NodeID {
	if n := t.nodes.get(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// ActionAt returns the action addressed by p. p.Tree is not checked.
func (t *ThreadTree) ActionAt(p ActionPoint) (Action, bool) {
	n := t.nodes.get(p.Node)
	if n == nil || p.Index < 0 || p.Index >= len(n.Actions) {
		return Action{}, false
	}
	return n.Actions[p.Index], true
}

// Creation is a thread creation recorded in this tree.
type Creation struct {
	TID   uint64
	Point ActionPoint
}

// Creations lists the threads created by this thread, ordered by thread id.
func (t *ThreadTree) Creations() []Creation {
	out := make([]Creation, 0, len(t.creations))
	for tid, p := range t.creations {
		out = append(out, Creation{TID: tid, Point: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TID < out[j].TID })
	return out
}
