package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"calltrace/internal/observ"
	"calltrace/internal/progress"
)

// commandEnv carries what every command sets up from persistent flags.
type commandEnv struct {
	timer   *observ.Timer
	timings bool
	useUI   bool
	// tally counts finished files and records for the trace heartbeat.
	tally    *progress.Tally
	cleanups []func()
}

func startCommand(cmd *cobra.Command) (*commandEnv, error) {
	env := &commandEnv{timer: observ.NewTimer(), tally: new(progress.Tally)}
	var err error
	if env.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if err := setupColor(cmd); err != nil {
		return nil, err
	}
	if env.useUI, err = resolveUI(cmd); err != nil {
		return nil, err
	}

	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	env.cleanups = append(env.cleanups, stopProf)

	stopTrace, err := setupTracing(cmd, env.tally.String)
	if err != nil {
		env.finish(cmd)
		return nil, err
	}
	env.cleanups = append(env.cleanups, stopTrace)
	return env, nil
}

// finish runs cleanups in reverse order and prints --timings to stderr.
func (e *commandEnv) finish(cmd *cobra.Command) {
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
	e.cleanups = nil
	if e.timings {
		fmt.Fprint(cmd.ErrOrStderr(), e.timer.Summary())
	}
}
