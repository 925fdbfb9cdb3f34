package ui

import (
	"fmt"
	"strings"
	"testing"

	prog "calltrace/internal/progress"
)

func TestApplyEventCounts(t *testing.T) {
	m := NewProgressModel("scan", []string{"e1", "e2", "e3"}, nil).(*progressModel)

	m.applyEvent(prog.Event{File: "e1", Stage: prog.StageScan, Status: prog.StatusWorking})
	if got := m.percent(); got != 0.5/3 {
		t.Fatalf("percent = %v", got)
	}
	m.applyEvent(prog.Event{File: "e1", Stage: prog.StageScan, Status: prog.StatusDone})
	m.applyEvent(prog.Event{File: "e2", Stage: prog.StageReplay, Status: prog.StatusTruncated})
	m.applyEvent(prog.Event{File: "e3", Stage: prog.StageScan, Status: prog.StatusError})
	// поздние события по завершённому элементу игнорируются
	m.applyEvent(prog.Event{File: "e3", Stage: prog.StageScan, Status: prog.StatusDone})
	m.applyEvent(prog.Event{File: "unknown", Stage: prog.StageScan, Status: prog.StatusDone})

	if m.finished() != 3 || m.failed != 1 || m.truncated != 1 {
		t.Fatalf("finished=%d failed=%d truncated=%d", m.finished(), m.failed, m.truncated)
	}
	if m.percent() != 1 {
		t.Fatalf("percent = %v", m.percent())
	}

	view := m.View()
	for _, want := range []string{"scan 3/3", "1 truncated", "1 failed", "e1", "e2", "e3"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestVisibleCapsRows(t *testing.T) {
	names := make([]string, 40)
	for i := range names {
		names[i] = fmt.Sprintf("rec%02d", i)
	}
	m := NewProgressModel("scan", names, nil).(*progressModel)
	m.applyEvent(prog.Event{File: "rec39", Stage: prog.StageScan, Status: prog.StatusWorking})

	vis := m.visible()
	if len(vis) != maxVisible {
		t.Fatalf("visible = %d rows", len(vis))
	}
	if vis[0].name != "rec39" {
		t.Fatalf("working row should come first, got %q", vis[0].name)
	}
	if !strings.Contains(m.View(), "16 more") {
		t.Fatalf("view should mention hidden rows")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("exec_recs/guards/abcdef", 10); got != "exec_re..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
