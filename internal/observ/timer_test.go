package observ

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("forest")
	tm.End(idx, "3 trees")
	tm.End(idx, "ignored")
	if err := tm.Measure("analyze", func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("Measure must return fn's error")
	}

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %+v", r.Phases)
	}
	if r.Phases[0].Note != "3 trees" {
		t.Fatalf("note = %q", r.Phases[0].Note)
	}
	if r.Phases[1].Note != "failed: boom" {
		t.Fatalf("note = %q", r.Phases[1].Note)
	}

	s := tm.Summary()
	for _, want := range []string{"timings:", "forest", "analyze", "total", "// 3 trees"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("record"), "")
		}()
	}
	wg.Wait()
	if n := len(tm.Report().Phases); n != 16 {
		t.Fatalf("phases = %d, want 16", n)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer report = %+v", r)
	}
}
