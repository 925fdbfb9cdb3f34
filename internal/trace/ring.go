package trace

import (
	"io"
	"slices"
	"sync"
)

// DefaultRingSize is the ring capacity when none is configured.
const DefaultRingSize = 4096

// RingTracer keeps the last N events in memory for a post-mortem dump.
type RingTracer struct {
	mu     sync.RWMutex
	buf    []Event
	next   int  // write position
	filled bool // buf has wrapped at least once
	level  Level
	// failed collects thread labels whose replay span ended with an error,
	// including those whose events have already been overwritten.
	failed map[string]struct{}
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &RingTracer{
		buf:    make([]Event, capacity),
		level:  level,
		failed: make(map[string]struct{}),
	}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	stored := *ev
	stored.Seq = NextSeq()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf[t.next] = stored
	t.next++
	if t.next == len(t.buf) {
		t.next, t.filled = 0, true
	}
	if stored.failed() {
		t.failed[stored.Thread] = struct{}{}
	}
}

// Snapshot returns a copy of the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.filled {
		return slices.Clone(t.buf[:t.next])
	}
	out := make([]Event, 0, len(t.buf))
	out = append(out, t.buf[t.next:]...)
	return append(out, t.buf[:t.next]...)
}

// ThreadSnapshot is Snapshot restricted to one thread file.
func (t *RingTracer) ThreadSnapshot(thread string) []Event {
	all := t.Snapshot()
	out := all[:0]
	for _, ev := range all {
		if ev.Thread == thread {
			out = append(out, ev)
		}
	}
	return out
}

// FailedThreads lists the threads whose replay span ended with an error, sorted.
func (t *RingTracer) FailedThreads() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.failed))
	for th := range t.failed {
		out = append(out, th)
	}
	slices.Sort(out)
	return out
}

// Dump writes all stored events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return writeEvents(w, t.Snapshot(), format)
}

// DumpThread writes the stored events of one thread file to w.
func (t *RingTracer) DumpThread(w io.Writer, format Format, thread string) error {
	return writeEvents(w, t.ThreadSnapshot(thread), format)
}

func writeEvents(w io.Writer, events []Event, format Format) error {
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
