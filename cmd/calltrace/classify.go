package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"calltrace/internal/exectree"
	"calltrace/internal/guard"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <trace-file>",
	Short: "Classify every line of one thread trace without building a tree",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().Int("max-errors", 10, "malformed lines to print (0 prints none)")
	classifyCmd.Flags().Bool("rules", false, "list the line rules in dispatch order and exit")
	classifyCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type lineError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type classifyStats struct {
	File      string         `json:"file"`
	Lines     int            `json:"lines"`
	Blank     int            `json:"blank"`
	Kinds     map[string]int `json:"kinds"`
	ValueHits int            `json:"value_hits"`
	Skips     int            `json:"skips"`
	Malformed int            `json:"malformed"`
	Errors    []lineError    `json:"errors,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	listRules, err := cmd.Flags().GetBool("rules")
	if err != nil {
		return fmt.Errorf("failed to get rules flag: %w", err)
	}
	if listRules {
		out := cmd.OutOrStdout()
		for i, name := range guard.Rules() {
			fmt.Fprintf(out, "%d. %s\n", i+1, name)
		}
		return nil
	}
	if len(args) == 0 {
		return errors.New("classify needs a trace file")
	}

	env, err := startCommand(cmd)
	if err != nil {
		return err
	}
	defer env.finish(cmd)

	maxErrors, err := cmd.Flags().GetInt("max-errors")
	if err != nil {
		return fmt.Errorf("failed to get max-errors flag: %w", err)
	}
	formatFlag, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readFormat(formatFlag)
	if err != nil {
		return err
	}

	var stats classifyStats
	err = env.timer.Measure("classify", func() error {
		var cerr error
		stats, cerr = classifyFile(args[0], maxErrors)
		return cerr
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, stats)
	}

	fmt.Fprintln(out, headerColor.Sprint(stats.File))
	rows := []row{
		{label: "lines", value: strconv.Itoa(stats.Lines)},
		{label: "blank", value: strconv.Itoa(stats.Blank)},
		{label: "value hits", value: strconv.Itoa(stats.ValueHits)},
		{label: "skip retries", value: strconv.Itoa(stats.Skips)},
		{label: "malformed", value: strconv.Itoa(stats.Malformed)},
	}
	writeTable(out, rows)

	section(out, "events")
	kinds := make([]row, 0, len(stats.Kinds))
	for k := guard.KindCall; k <= guard.KindThreadCreate; k++ {
		if n := stats.Kinds[k.String()]; n > 0 {
			kinds = append(kinds, row{label: k.String(), value: strconv.Itoa(n)})
		}
	}
	if len(kinds) == 0 {
		none(out, "events")
	} else {
		writeTable(out, kinds)
	}

	if len(stats.Errors) > 0 {
		section(out, "malformed lines")
		for _, e := range stats.Errors {
			fmt.Fprintf(out, "  %s %s\n", errColor.Sprintf("%d:", e.Line), e.Message)
		}
		if rest := stats.Malformed - len(stats.Errors); rest > 0 {
			fmt.Fprintln(out, dimColor.Sprintf("  ... %d more", rest))
		}
	}
	return nil
}

// classifyFile reads path line by line; a malformed line is counted and the
// scan goes on.
func classifyFile(path string, maxErrors int) (classifyStats, error) {
	stats := classifyStats{File: path, Kinds: make(map[string]int)}
	file, err := os.Open(path)
	if err != nil {
		return stats, err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), exectree.MaxLineSize)
	for sc.Scan() {
		stats.Lines++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			stats.Blank++
			continue
		}
		res, cerr := guard.Classify(line)
		if cerr != nil {
			stats.Malformed++
			if len(stats.Errors) < maxErrors {
				stats.Errors = append(stats.Errors, lineError{Line: stats.Lines, Message: cerr.Error()})
			}
			continue
		}
		if res.HasEvent {
			stats.Kinds[res.Event.Kind.String()]++
		}
		if res.HasValueHit {
			stats.ValueHits++
		}
		if res.Skipped > 0 {
			stats.Skips++
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("%s: line %d: %w", path, stats.Lines+1, err)
	}
	return stats, nil
}
