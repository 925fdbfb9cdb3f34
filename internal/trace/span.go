package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 { return globalSpans.Add(1) }

// goroutineID reads the id from the "goroutine N [running]:" header.
func goroutineID() uint64 {
	var buf [64]byte
	hdr := buf[:runtime.Stack(buf[:], false)]
	hdr, ok := bytes.CutPrefix(hdr, []byte("goroutine "))
	if !ok {
		return 0
	}
	if end := bytes.IndexByte(hdr, ' '); end >= 0 {
		hdr = hdr[:end]
	}
	gid, err := strconv.ParseUint(string(hdr), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span tracks one begin/end pair. A disabled span is safe to use and does
// nothing.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	scope    Scope
	name     string
	thread   string
	started  time.Time
	extra    map[string]string
}

func enabled(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// Begin starts a span and emits its begin event; parent is 0 for a root span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	return begin(t, scope, name, "", parent)
}

// BeginThread starts the replay span of one thread file. Every event of the
// span carries the file label, so a ring dump can be cut down to one thread.
func BeginThread(t Tracer, thread string, parent uint64) *Span {
	return begin(t, ScopeThread, "replay", thread, parent)
}

func begin(t Tracer, scope Scope, name, thread string, parent uint64) *Span {
	if !enabled(t, scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      goroutineID(),
		scope:    scope,
		name:     name,
		thread:   thread,
		started:  time.Now(),
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     s.name,
		Thread:   s.thread,
		Detail:   detail,
	}
}

func (s *Span) live() bool {
	return s != nil && s.tracer != nil && s.tracer.Enabled()
}

// End emits the end event and returns the span duration. A non-empty detail
// on a thread span marks the replay as failed.
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	now := time.Now()
	ev := s.event(KindSpanEnd, now, detail)
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return now.Sub(s.started)
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID (0 for a disabled span).
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Thread returns the file label of a thread span.
func (s *Span) Thread() string {
	if s == nil {
		return ""
	}
	return s.thread
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !enabled(t, scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		GID:      goroutineID(),
		Name:     name,
		Detail:   detail,
	})
}

// LinePoint emits a debug point tied to one line of a thread file.
func LinePoint(t Tracer, thread string, line int, name, detail string, parent uint64) {
	if !enabled(t, ScopeLine) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    ScopeLine,
		ParentID: parent,
		GID:      goroutineID(),
		Name:     name,
		Thread:   thread,
		Line:     line,
		Detail:   detail,
	})
}
