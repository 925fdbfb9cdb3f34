package guard

import (
	"fmt"

	"calltrace/internal/srcloc"
)

// Kind enumerates the structured events a guard line can produce.
type Kind uint8

const (
	KindNone Kind = iota
	KindCall
	KindReturn
	KindUnwind
	KindJump
	KindLoop
	KindRecurLock
	KindThreadCreate
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	case KindUnwind:
		return "unwind"
	case KindJump:
		return "jump"
	case KindLoop:
		return "loop"
	case KindRecurLock:
		return "recur_lock"
	case KindThreadCreate:
		return "thread_create"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// JumpKind distinguishes the branch guards.
type JumpKind uint8

const (
	JumpMergeBranch JumpKind = iota
	JumpSwitch
	JumpIndirect
)

func (k JumpKind) String() string {
	switch k {
	case JumpMergeBranch:
		return "merge_br"
	case JumpSwitch:
		return "switch"
	case JumpIndirect:
		return "indirect_br"
	default:
		return fmt.Sprintf("JumpKind(%d)", k)
	}
}

// LoopKind distinguishes the loop guards.
type LoopKind uint8

const (
	LoopHit LoopKind = iota
	LoopExceed
	LoopOut
	LoopNoStart
)

func (k LoopKind) String() string {
	switch k {
	case LoopHit:
		return "hit"
	case LoopExceed:
		return "exceed"
	case LoopOut:
		return "out"
	case LoopNoStart:
		return "no_start"
	default:
		return fmt.Sprintf("LoopKind(%d)", k)
	}
}

// Event is one classified guard line. Field meaning depends on Kind:
//
//	Call          Name, At = invocation location (Flag set when present)
//	Return/Unwind Name
//	Jump          Sub = JumpKind, At = condition, Flag = taken, To = destination
//	Loop          Sub = LoopKind, At = header, To = exit (Out, NoStart), N = count
//	RecurLock     Flag = locked
//	ThreadCreate  At = creation site, N = new thread id
//
// Events are compact because replay keeps one per trace line.
type Event struct {
	Kind Kind
	Sub  uint8
	Flag bool
	Name string
	At   srcloc.Loc
	To   srcloc.Loc
	N    uint64
}

func CallEvent(name string, invoc srcloc.Loc, hasInvoc bool) Event {
	return Event{Kind: KindCall, Name: name, At: invoc, Flag: hasInvoc}
}

func ReturnEvent(name string) Event { return Event{Kind: KindReturn, Name: name} }

func UnwindEvent(name string) Event { return Event{Kind: KindUnwind, Name: name} }

func JumpEvent(kind JumpKind, cond srcloc.Loc, taken bool, dest srcloc.Loc) Event {
	return Event{Kind: KindJump, Sub: uint8(kind), At: cond, Flag: taken, To: dest}
}

func LoopEvent(kind LoopKind, header, out srcloc.Loc, count uint64) Event {
	return Event{Kind: KindLoop, Sub: uint8(kind), At: header, To: out, N: count}
}

func RecurLockEvent(locked bool) Event { return Event{Kind: KindRecurLock, Flag: locked} }

func ThreadCreateEvent(loc srcloc.Loc, tid uint64) Event {
	return Event{Kind: KindThreadCreate, At: loc, N: tid}
}

// InvocLoc returns the call-site location of a Call event.
func (e Event) InvocLoc() (srcloc.Loc, bool) { return e.At, e.Kind == KindCall && e.Flag }

func (e Event) JumpKind() JumpKind { return JumpKind(e.Sub) }
func (e Event) LoopKind() LoopKind { return LoopKind(e.Sub) }
func (e Event) Taken() bool        { return e.Kind == KindJump && e.Flag }
func (e Event) Locked() bool       { return e.Kind == KindRecurLock && e.Flag }

// Header is the loop header of a Loop event.
func (e Event) Header() srcloc.Loc { return e.At }

// Count is the iteration count of Loop hit/exceed/out events.
func (e Event) Count() uint64 { return e.N }

// NewTID is the created thread id of a ThreadCreate event.
func (e Event) NewTID() uint64 { return e.N }

// HasCount reports whether a Loop event carries an iteration count.
func (e Event) HasCount() bool {
	return e.Kind == KindLoop && e.LoopKind() != LoopNoStart
}

func (e Event) String() string {
	switch e.Kind {
	case KindCall:
		if e.Flag {
			return fmt.Sprintf("call %s at %s", e.Name, e.At)
		}
		return "call " + e.Name
	case KindReturn:
		return "return " + e.Name
	case KindUnwind:
		return "unwind " + e.Name
	case KindJump:
		taken := 0
		if e.Flag {
			taken = 1
		}
		return fmt.Sprintf("%s %s %d %s", e.JumpKind(), e.At, taken, e.To)
	case KindLoop:
		switch e.LoopKind() {
		case LoopOut:
			return fmt.Sprintf("loop out %s -> %s count %d", e.At, e.To, e.N)
		case LoopNoStart:
			return fmt.Sprintf("loop no_start %s -> %s", e.At, e.To)
		default:
			return fmt.Sprintf("loop %s %s count %d", e.LoopKind(), e.At, e.N)
		}
	case KindRecurLock:
		if e.Flag {
			return "recur lock locked"
		}
		return "recur lock released"
	case KindThreadCreate:
		return fmt.Sprintf("thread %d created at %s", e.N, e.At)
	default:
		return e.Kind.String()
	}
}
