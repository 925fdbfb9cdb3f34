package progress

import "time"

// Stage describes a high-level phase of a run.
type Stage string

const (
	// StageReplay is the per-file replay of a thread trace.
	StageReplay Stage = "replay"
	// StageMerge is the sequential assembly of thread trees into a forest.
	StageMerge Stage = "merge"
	// StageAnalyze runs the analysis suite over a tree.
	StageAnalyze Stage = "analyze"
	// StageScan tests one execution record against the constraint.
	StageScan Stage = "scan"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusTruncated is a finished replay that stopped at the hit limit.
	StatusTruncated Status = "truncated"
	StatusError     Status = "error"
)

// Event reports progress for one item (or the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events. Implementations must be goroutine-safe.
type Sink interface {
	OnEvent(Event)
}

// Emit sends ev to s when s is non-nil.
func Emit(s Sink, ev Event) {
	if s != nil {
		s.OnEvent(ev)
	}
}

// Queue emits StatusQueued for every file.
func Queue(s Sink, stage Stage, files []string) {
	if s == nil {
		return
	}
	for _, f := range files {
		s.OnEvent(Event{File: f, Stage: stage, Status: StatusQueued})
	}
}
