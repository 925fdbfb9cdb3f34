package exectree

import "calltrace/internal/guard"

// SubFuncIter yields the direct callees of one frame in call order.
type SubFuncIter struct {
	t    *ThreadTree
	node NodeID
	next int
}

// SubFuncs iterates the callees of id.
func (t *ThreadTree) SubFuncs(id NodeID) *SubFuncIter {
	return &SubFuncIter{t: t, node: id}
}

// Next scans forward from just after the previous callee's Call action.
func (it *SubFuncIter) Next() (NodeID, bool) {
	n := it.t.nodes.get(it.node)
	if n == nil {
		return NoNodeID, false
	}
	for it.next < len(n.Actions) {
		a := n.Actions[it.next]
		if a.Kind == guard.KindCall {
			it.next = it.t.nodes.get(a.Child).ParentIdx + 1
			return a.Child, true
		}
		it.next++
	}
	return NoNodeID, false
}

// Children collects the callees of id.
func (t *ThreadTree) Children(id NodeID) []NodeID {
	var out []NodeID
	it := t.SubFuncs(id)
	for c, ok := it.Next(); ok; c, ok = it.Next() {
		out = append(out, c)
	}
	return out
}

// BFSIter visits every frame breadth-first, starting at the root.
type BFSIter struct {
	t     *ThreadTree
	queue []NodeID
	head  int
}

// BFS returns a fresh breadth-first iterator.
func (t *ThreadTree) BFS() *BFSIter {
	return &BFSIter{t: t, queue: []NodeID{RootID}}
}

func (it *BFSIter) Next() (NodeID, bool) {
	if it.head >= len(it.queue) {
		return NoNodeID, false
	}
	id := it.queue[it.head]
	it.head++
	n := it.t.nodes.get(id)
	for i := range n.Actions {
		if n.Actions[i].Kind == guard.KindCall {
			it.queue = append(it.queue, n.Actions[i].Child)
		}
	}
	// отданную часть очереди можно отпустить
	if it.head > 1024 && it.head*2 > len(it.queue) {
		it.queue = append(it.queue[:0], it.queue[it.head:]...)
		it.head = 0
	}
	return id, true
}

// Walk visits frames depth-first in call order without recursion.
// enter receives the frame and the path from the root to it (inclusive);
// the path slice is reused and must not be retained. Returning false from
// enter skips the frame's callees. leave, if non-nil, runs after all callees.
func (t *ThreadTree) Walk(enter func(id NodeID, path []NodeID) bool, leave func(id NodeID)) {
	type frame struct {
		id NodeID
		it SubFuncIter
	}
	path := []NodeID{RootID}
	stack := []frame{{id: RootID, it: SubFuncIter{t: t, node: RootID}}}
	if !enter(RootID, path) {
		if leave != nil {
			leave(RootID)
		}
		return
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		child, ok := top.it.Next()
		if !ok {
			if leave != nil {
				leave(top.id)
			}
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			continue
		}
		path = append(path, child)
		if !enter(child, path) {
			if leave != nil {
				leave(child)
			}
			path = path[:len(path)-1]
			continue
		}
		stack = append(stack, frame{id: child, it: SubFuncIter{t: t, node: child}})
	}
}
