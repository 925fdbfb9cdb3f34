package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"calltrace/internal/trace"
)

// setupTracing inspects trace-related flags and initializes the tracer.
// probe feeds heartbeat events. It returns a cleanup function and an error
// if initialization fails.
func setupTracing(cmd *cobra.Command, probe trace.Probe) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	threads, err := root.PersistentFlags().GetStringSlice("trace-thread")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-thread flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает фазы
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Threads:    threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval, probe)
	}

	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if mode == trace.ModeRing {
			dumpRing(cmd, trace.RingOf(tracer))
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

// dumpRing writes the ring to stderr on exit. When replays failed only the
// failing threads are dumped.
func dumpRing(cmd *cobra.Command, ring *trace.RingTracer) {
	if ring == nil {
		return
	}
	w := cmd.ErrOrStderr()
	failed := ring.FailedThreads()
	if len(failed) == 0 {
		if err := ring.Dump(w, trace.FormatText); err != nil {
			fmt.Fprintf(w, "trace: dump error: %v\n", err)
		}
		return
	}
	for _, th := range failed {
		fmt.Fprintf(w, "trace: last events of %s\n", th)
		if err := ring.DumpThread(w, trace.FormatText, th); err != nil {
			fmt.Fprintf(w, "trace: dump error: %v\n", err)
			return
		}
	}
}
