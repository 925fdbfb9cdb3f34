package analysis

import "calltrace/internal/exectree"

// ActionCounts tallies recorded actions by kind.
type ActionCounts struct {
	Calls         int `json:"calls"`
	Returns       int `json:"returns"`
	Unwinds       int `json:"unwinds"`
	Jumps         int `json:"jumps"`
	TakenJumps    int `json:"taken_jumps"`
	Loops         int `json:"loops"`
	RecurLocks    int `json:"recur_locks"`
	ThreadCreates int `json:"thread_creates"`
}

var _ exectree.ActionVisitor = (*ActionCounts)(nil)

func (c *ActionCounts) VisitCall(exectree.Action)   { c.Calls++ }
func (c *ActionCounts) VisitReturn(exectree.Action) { c.Returns++ }
func (c *ActionCounts) VisitUnwind(exectree.Action) { c.Unwinds++ }
func (c *ActionCounts) VisitLoop(exectree.Action)   { c.Loops++ }

func (c *ActionCounts) VisitJump(a exectree.Action) {
	c.Jumps++
	if a.Taken() {
		c.TakenJumps++
	}
}

func (c *ActionCounts) VisitRecurLock(exectree.Action)    { c.RecurLocks++ }
func (c *ActionCounts) VisitThreadCreate(exectree.Action) { c.ThreadCreates++ }

// Total is the number of actions counted.
func (c ActionCounts) Total() int {
	return c.Calls + c.Returns + c.Unwinds + c.Jumps + c.Loops + c.RecurLocks + c.ThreadCreates
}

// CountActions visits every action of every frame.
func CountActions(t *exectree.ThreadTree) ActionCounts {
	var c ActionCounts
	it := t.BFS()
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		for _, a := range t.Node(id).Actions {
			a.Visit(&c)
		}
	}
	return c
}
