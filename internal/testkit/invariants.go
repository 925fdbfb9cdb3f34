package testkit

import (
	"fmt"

	"calltrace/internal/exectree"
	"calltrace/internal/guard"
)

// CheckTree runs the structural invariants of a replayed tree:
// 1) the root is the only frame without a parent and has depth 0
// 2) every frame is reachable from its parent's Call action at ParentIdx
// 3) every Call action points at a frame whose Parent/ParentIdx point back
// 4) depth grows by one per call and the deepest frame is MaxDepth
// 5) frame count = 1 + number of Call actions
func CheckTree(t *exectree.ThreadTree) error {
	if t == nil {
		return fmt.Errorf("nil tree")
	}
	root := t.Node(exectree.RootID)
	if root == nil || !root.IsInit() || root.Depth != 0 {
		return fmt.Errorf("root frame is missing or malformed")
	}

	calls := 0
	maxDepth := 0
	for i := 1; i <= t.Len(); i++ {
		id := exectree.NodeID(i)
		n := t.Node(id)
		if n == nil {
			return fmt.Errorf("frame %d missing", id)
		}
		maxDepth = max(maxDepth, n.Depth)
		if id != exectree.RootID {
			if n.IsInit() {
				return fmt.Errorf("frame %d has no parent", id)
			}
			parent := t.Node(n.Parent)
			if parent == nil {
				return fmt.Errorf("frame %d: parent %d missing", id, n.Parent)
			}
			if n.Parent >= id {
				return fmt.Errorf("frame %d: parent %d allocated later", id, n.Parent)
			}
			if n.ParentIdx < 0 || n.ParentIdx >= len(parent.Actions) {
				return fmt.Errorf("frame %d: parent index %d out of range", id, n.ParentIdx)
			}
			a := parent.Actions[n.ParentIdx]
			if a.Kind != guard.KindCall || a.Child != id {
				return fmt.Errorf("frame %d: parent action %d is %s -> %d", id, n.ParentIdx, a.Kind, a.Child)
			}
			if n.Depth != parent.Depth+1 {
				return fmt.Errorf("frame %d: depth %d, parent depth %d", id, n.Depth, parent.Depth)
			}
		}
		for j, a := range n.Actions {
			if a.Kind != guard.KindCall {
				if a.Child.IsValid() {
					return fmt.Errorf("frame %d action %d: %s carries a child", id, j, a.Kind)
				}
				continue
			}
			calls++
			child := t.Node(a.Child)
			if child == nil || child.Parent != id || child.ParentIdx != j {
				return fmt.Errorf("frame %d action %d: child %d does not point back", id, j, a.Child)
			}
		}
	}
	if maxDepth != t.MaxDepth {
		return fmt.Errorf("deepest frame is %d, MaxDepth is %d", maxDepth, t.MaxDepth)
	}
	if t.Len() != calls+1 {
		return fmt.Errorf("%d frames but %d calls", t.Len(), calls)
	}
	return nil
}

// MustCheckTree panics on a broken tree; used by fuzz targets.
func MustCheckTree(t *exectree.ThreadTree) {
	if err := CheckTree(t); err != nil {
		panic(err)
	}
}
