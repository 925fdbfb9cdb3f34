package trace

import (
	"strconv"
	"sync"
	"time"
)

// Probe reports what the process is busy with; it runs on the heartbeat
// goroutine and must be goroutine-safe.
type Probe func() string

// Heartbeat emits periodic driver events while a long replay runs.
// Heartbeats whose probe value stops changing point at a stuck thread file.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	probe    Probe
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval is not positive.
// probe may be nil.
func StartHeartbeat(tracer Tracer, interval time.Duration, probe Probe) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		probe:    probe,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			ev := &Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    goroutineID(),
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
			}
			if h.probe != nil {
				ev.Extra = map[string]string{"progress": h.probe()}
			}
			h.tracer.Emit(ev)
		}
	}
}

// Stop halts the heartbeat goroutine and waits for it. Safe on nil.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
