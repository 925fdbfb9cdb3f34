// Package trace records what calltrace is doing while it replays guard traces.
//
// Replaying a multi-million-line thread file can take a while, and a forest
// build fans out over many files at once. The tracer makes that visible:
//
//	calltrace analyze --trace=- --trace-level=detail work/exec_recs/guards/id_000042
//
// # Tracers
//
//   - Nop: disabled tracing, no allocations
//   - StreamTracer: writes each event to a file or stderr as it happens
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: stream and ring together
//
// FilterThreads (--trace-thread) narrows thread and line events to the
// named trace files. A ring remembers which thread replays failed, so the
// exit dump can show only those.
//
// # Levels and scopes
//
// A level decides which scopes are emitted:
//
//   - LevelPhase: ScopeDriver (commands) and ScopePass (forest build, scan, analyses)
//   - LevelDetail: adds ScopeThread (one span per thread file)
//   - LevelDebug: adds ScopeLine (hits, near hits, skip retries), each
//     tagged with the thread file and trace line
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "forest", parentID)
//	defer span.End("")
package trace
