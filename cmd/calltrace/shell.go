package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell <guard-dir>",
	Short: "Walk the call-tree forest of one execution interactively",
	Long: `Builds the forest once and then reads commands (ls, cd, pwd, find, lca, ...)
with line editing and tab completion. When stdin is not a terminal the
commands are read one per line without a prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runShell,
}

func init() {
	addReplayFlags(shellCmd)
	shellCmd.Flags().String("history", "", "history file (default: <user cache>/calltrace/shell_history, \"none\" disables)")
}

func runShell(cmd *cobra.Command, args []string) error {
	env, err := startCommand(cmd)
	if err != nil {
		return err
	}
	defer env.finish(cmd)

	history, err := cmd.Flags().GetString("history")
	if err != nil {
		return fmt.Errorf("failed to get history flag: %w", err)
	}
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	minSev, err := readDiagLevel(cmd)
	if err != nil {
		return err
	}

	dir := args[0]
	f, err := buildForest(cmd.Context(), env, dir, s)
	if err != nil {
		return err
	}
	writeDiagnostics(cmd.ErrOrStderr(), f.Diagnostics(), dir, minSev)

	ex, err := newExplorer(f, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if !isTerminal(os.Stdin) {
		return ex.runScript(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ex.prompt(),
		HistoryFile:     historyPath(history),
		AutoComplete:    shellCompleter(ex),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%d thread trees loaded, type help for commands\n", f.Len())
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		if err := ex.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), errColor.Sprint("error: ")+err.Error())
		}
		rl.SetPrompt(ex.prompt())
	}
}

func shellCompleter(ex *explorer) *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("threads"),
		readline.PcItem("thread", readline.PcItemDynamic(ex.threadLabels)),
		readline.PcItem("ls"),
		readline.PcItem("cd", readline.PcItemDynamic(ex.childNames)),
		readline.PcItem("pwd"),
		readline.PcItem("actions"),
		readline.PcItem("find"),
		readline.PcItem("lca"),
		readline.PcItem("summary"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// historyPath resolves --history; an empty result disables history.
func historyPath(flag string) string {
	switch flag {
	case "none":
		return ""
	case "":
	default:
		return flag
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(base, "calltrace")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "shell_history")
}
