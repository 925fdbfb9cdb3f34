package progress

import (
	"fmt"
	"sync/atomic"
)

// Tally counts per-file events. The heartbeat probe reads it while workers
// are still emitting.
type Tally struct {
	queued    atomic.Int64
	done      atomic.Int64
	truncated atomic.Int64
	failed    atomic.Int64
}

func (t *Tally) OnEvent(evt Event) {
	if evt.File == "" {
		return
	}
	switch evt.Status {
	case StatusQueued:
		t.queued.Add(1)
	case StatusDone:
		t.done.Add(1)
	case StatusTruncated:
		t.truncated.Add(1)
	case StatusError:
		t.failed.Add(1)
	}
}

// Finished is the number of files that reached a final status.
func (t *Tally) Finished() int64 {
	return t.done.Load() + t.truncated.Load() + t.failed.Load()
}

func (t *Tally) Failed() int64 { return t.failed.Load() }

func (t *Tally) String() string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d finished, %d truncated, %d failed",
		t.Finished(), t.queued.Load(), t.truncated.Load(), t.failed.Load())
}

type multiSink []Sink

// Multi fans events out to every non-nil sink, in order.
func Multi(sinks ...Sink) Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (m multiSink) OnEvent(evt Event) {
	for _, s := range m {
		s.OnEvent(evt)
	}
}
