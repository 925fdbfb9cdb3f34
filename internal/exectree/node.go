package exectree

import (
	"calltrace/internal/guard"
	"calltrace/internal/source"
)

// FuncNode is one dynamic invocation. The root frame (Init) has no parent
// and no name; every other frame is created by exactly one Call action in
// its parent, at Actions[ParentIdx] of the parent.
type FuncNode struct {
	Name      source.StringID
	Parent    NodeID
	ParentIdx int
	Depth     int
	Actions   []Action
}

// IsInit reports whether n is the synthetic root frame.
func (n *FuncNode) IsInit() bool {
	return !n.Parent.IsValid()
}

// CallCount returns the number of direct callees.
func (n *FuncNode) CallCount() int {
	c := 0
	for i := range n.Actions {
		if n.Actions[i].Kind == guard.KindCall {
			c++
		}
	}
	return c
}
