package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"calltrace/internal/analysis"
	"calltrace/internal/exectree"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <guard-dir>",
	Short: "Rebuild the call-tree forest of one execution and print analyses",
	Long: `Replays every thread trace in <guard-dir> (files named <tid> or <tid>_main)
and prints, per thread: longest invocations, most called functions,
recursion cycles, hot loop headers, widest fan-out and the call graph.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addReplayFlags(analyzeCmd)
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	analyzeCmd.Flags().String("tree", "all", "which threads to report (all|main|<tid>)")
}

type analyzeJSON struct {
	Dir         string             `json:"dir"`
	Related     bool               `json:"related"`
	Hits        int                `json:"hits"`
	Trees       []analysis.Summary `json:"trees"`
	Diagnostics []jsonDiagnostic   `json:"diagnostics,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	env, err := startCommand(cmd)
	if err != nil {
		return err
	}
	defer env.finish(cmd)

	formatFlag, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readFormat(formatFlag)
	if err != nil {
		return err
	}
	treeFlag, err := cmd.Flags().GetString("tree")
	if err != nil {
		return fmt.Errorf("failed to get tree flag: %w", err)
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
	if f.Len() == 0 && f.Diagnostics().HasErrors() {
		return errNothingBuilt
	}

	trees, err := selectTrees(f, treeFlag)
	if err != nil {
		return err
	}

	var sums []analysis.Summary
	err = env.timer.Measure("analyze", func() error {
		if len(trees) == f.Len() {
			sums, err = analysis.SummarizeForest(cmd.Context(), f, s.Jobs)
			return err
		}
		sums = make([]analysis.Summary, 0, len(trees))
		for _, t := range trees {
			sums = append(sums, analysis.Summarize(t))
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, analyzeJSON{
			Dir:         dir,
			Related:     f.Related(),
			Hits:        f.TotalHits(),
			Trees:       sums,
			Diagnostics: diagnosticsJSON(f.Diagnostics()),
		})
	}

	fmt.Fprintf(out, "%s: %d threads", dir, f.Len())
	if s.Constraint != nil {
		fmt.Fprintf(out, ", %d hits on %s", f.TotalHits(), s.Constraint)
	}
	fmt.Fprint(out, "\n\n")
	for _, sum := range sums {
		writeSummary(out, sum)
	}
	writeCreations(cmd, f, trees)
	return nil
}

// writeCreations prints where each selected thread was spawned.
func writeCreations(cmd *cobra.Command, f *exectree.Forest, trees []*exectree.ThreadTree) {
	out := cmd.OutOrStdout()
	printed := false
	for _, t := range trees {
		creator, act, ok := f.Creator(t.TID)
		if !ok {
			continue
		}
		if !printed {
			section(out, "thread creations")
			printed = true
		}
		fmt.Fprintf(out, "  %d created by thread %d at %s\n", t.TID, creator.TID, act.At)
	}
}
