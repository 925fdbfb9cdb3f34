package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1 // span start
	KindSpanEnd                   // span end
	KindPoint                     // instant event
	KindHeartbeat                 // periodic liveness signal
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of an event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // CLI command
	ScopePass                    // forest build, batch scan, analysis run
	ScopeThread                  // replay of one thread file
	ScopeLine                    // single trace line (debug only)
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeThread:
		return "thread"
	case ScopeLine:
		return "line"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // stamped by the storing tracer
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for a root span
	GID      uint64
	Name     string // "forest", "replay", "near-hit", ...
	// Thread is the trace file label ("4242_main") for thread and line
	// scope events, empty above them.
	Thread string
	// Line is the 1-based trace line a line-scope point refers to.
	Line   int
	Detail string
	Extra  map[string]string
}

// failed reports whether ev closes a span that ended with an error detail.
func (ev *Event) failed() bool {
	return ev.Kind == KindSpanEnd && ev.Scope == ScopeThread && ev.Detail != ""
}
