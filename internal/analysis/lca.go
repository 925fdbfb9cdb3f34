package analysis

import (
	"errors"

	"calltrace/internal/exectree"
)

var (
	ErrNoCommonAncestor = errors.New("no common ancestor")
	ErrInvalidRef       = errors.New("invalid node reference")
)

// NodeRef names a frame inside a specific tree.
type NodeRef struct {
	Tree *exectree.ThreadTree
	ID   exectree.NodeID
}

func (r NodeRef) valid() bool {
	return r.Tree != nil && r.Tree.Node(r.ID) != nil
}

func (r NodeRef) Name() string {
	if !r.valid() {
		return ""
	}
	return r.Tree.Name(r.ID)
}

// LCA finds the nearest frame that strictly encloses both a and b. Frames of
// different trees have none; neither has the root frame, which encloses
// nothing.
func LCA(a, b NodeRef) (NodeRef, error) {
	if !a.valid() || !b.valid() {
		return NodeRef{}, ErrInvalidRef
	}
	if a.Tree != b.Tree {
		return NodeRef{}, ErrNoCommonAncestor
	}
	t := a.Tree
	x, y := t.Parent(a.ID), t.Parent(b.ID)
	if !x.IsValid() || !y.IsValid() {
		return NodeRef{}, ErrNoCommonAncestor
	}
	for t.Node(x).Depth > t.Node(y).Depth {
		x = t.Parent(x)
	}
	for t.Node(y).Depth > t.Node(x).Depth {
		y = t.Parent(y)
	}
	for x != y {
		x, y = t.Parent(x), t.Parent(y)
		if !x.IsValid() || !y.IsValid() {
			return NodeRef{}, ErrNoCommonAncestor
		}
	}
	return NodeRef{Tree: t, ID: x}, nil
}

// CallPath lists the names from the root down to id, both included.
func CallPath(t *exectree.ThreadTree, id exectree.NodeID) []string {
	var rev []string
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		rev = append(rev, t.Name(cur))
	}
	out := make([]string, len(rev))
	for i, name := range rev {
		out[len(rev)-1-i] = name
	}
	return out
}
