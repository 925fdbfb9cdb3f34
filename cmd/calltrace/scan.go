package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"calltrace/internal/execrec"
	"calltrace/internal/progress"
)

var scanCmd = &cobra.Command{
	Use:   "scan <guards-root>",
	Short: "Test every execution record under a guards root against the constraint",
	Long: `Each subdirectory of <guards-root> is one execution record. Records are
replayed in parallel; a record is related when any of its threads hits the
constraint. The first record that fails to build aborts the whole scan.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	addReplayFlags(scanCmd)
	scanCmd.Flags().Bool("no-cache", false, "do not read or write the verdict cache")
	scanCmd.Flags().Bool("all", false, "list unrelated records too")
	scanCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

var errNoConstraint = errors.New("scan needs a constraint (--constraint or [constraint] in calltrace.toml)")

type scanJSON struct {
	Root     string            `json:"root"`
	Records  int               `json:"records"`
	Related  int               `json:"related"`
	Verdicts []execrec.Verdict `json:"verdicts"`
}

func runScan(cmd *cobra.Command, args []string) error {
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
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if s.Constraint == nil {
		return errNoConstraint
	}

	root := args[0]
	recs, err := execrec.Discover(root)
	if err != nil {
		return err
	}

	opts := execrec.ScanOptions{
		Forest:   s.forestOptions(),
		Jobs:     s.Jobs,
		Progress: env.tally,
	}
	// внутри записи файлы идут последовательно, параллелим по записям
	opts.Forest.Jobs = 1
	if s.Cache {
		cache, err := execrec.OpenCache("calltrace")
		if err != nil {
			return fmt.Errorf("open verdict cache: %w", err)
		}
		opts.Cache = cache
	}

	idx := env.timer.Begin("scan")
	var verdicts []execrec.Verdict
	if env.useUI {
		names := make([]string, len(recs))
		for i, r := range recs {
			names[i] = r.Name
		}
		verdicts, err = runWithUI(cmd.Context(), "scanning "+filepath.Base(root), names,
			func(ctx context.Context, sink progress.Sink) ([]execrec.Verdict, error) {
				o := opts
				o.Progress = progress.Multi(sink, env.tally)
				return execrec.ScanRecords(ctx, recs, o)
			})
	} else {
		verdicts, err = execrec.ScanRecords(cmd.Context(), recs, opts)
	}
	if err != nil {
		env.timer.End(idx, "failed")
		return err
	}
	related := execrec.Related(verdicts)
	env.timer.End(idx, fmt.Sprintf("%d records, %d related", len(verdicts), len(related)))

	out := cmd.OutOrStdout()
	if format == "json" {
		list := related
		if all {
			list = verdicts
		}
		if list == nil {
			list = []execrec.Verdict{}
		}
		return writeJSON(out, scanJSON{Root: root, Records: len(verdicts), Related: len(related), Verdicts: list})
	}

	list := related
	if all {
		list = verdicts
	}
	rows := make([]row, 0, len(list))
	for _, v := range list {
		value := "hits " + strconv.Itoa(v.Hits) + ", threads " + strconv.Itoa(v.Trees)
		if v.Truncated > 0 {
			value += ", truncated " + strconv.Itoa(v.Truncated)
		}
		if v.Cached {
			value += " (cached)"
		}
		if !v.Related {
			value = dimColor.Sprint(value + ", unrelated")
		}
		rows = append(rows, row{label: v.Name, value: value})
	}
	writeTable(out, rows)
	fmt.Fprintf(out, "%s of %d records related to %s\n", okColor.Sprint(strconv.Itoa(len(related))), len(verdicts), s.Constraint)
	return nil
}
