package exectree

import (
	"fmt"

	"calltrace/internal/guard"
)

// Action is one event recorded in a frame's action list.
// Child is set only for Call actions and owns the callee frame.
type Action struct {
	guard.Event
	Child NodeID
}

// ActionVisitor has one method per action kind. Adding a kind to the tree
// means adding a method here, which breaks every visitor until it handles it.
type ActionVisitor interface {
	VisitCall(a Action)
	VisitReturn(a Action)
	VisitUnwind(a Action)
	VisitJump(a Action)
	VisitLoop(a Action)
	VisitRecurLock(a Action)
	VisitThreadCreate(a Action)
}

// Visit dispatches a to the matching visitor method.
func (a Action) Visit(v ActionVisitor) {
	switch a.Kind {
	case guard.KindCall:
		v.VisitCall(a)
	case guard.KindReturn:
		v.VisitReturn(a)
	case guard.KindUnwind:
		v.VisitUnwind(a)
	case guard.KindJump:
		v.VisitJump(a)
	case guard.KindLoop:
		v.VisitLoop(a)
	case guard.KindRecurLock:
		v.VisitRecurLock(a)
	case guard.KindThreadCreate:
		v.VisitThreadCreate(a)
	default:
		panic(fmt.Sprintf("exectree: action of kind %s in tree", a.Kind))
	}
}

// IsExit reports whether a closes the current frame.
func (a Action) IsExit() bool {
	return a.Kind == guard.KindReturn || a.Kind == guard.KindUnwind
}

// ActionPoint is the exact coordinate of an action: the forest tree index,
// the frame, and the position in that frame's action list.
// Tree is -1 until the tree joins a forest.
type ActionPoint struct {
	Tree  int
	Node  NodeID
	Index int
}
