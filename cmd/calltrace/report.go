package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"calltrace/internal/analysis"
	"calltrace/internal/diag"
)

// maxLabelWidth caps the first column; C++ names get long.
const maxLabelWidth = 56

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	sectionColor = color.New(color.Bold)
	countColor   = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errColor     = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen, color.Bold)
)

type row struct {
	label string
	value string
}

// writeTable prints two columns, the first padded by display width.
func writeTable(w io.Writer, rows []row) {
	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.label))
	}
	width = min(width, maxLabelWidth)
	for _, r := range rows {
		label := r.label
		if runewidth.StringWidth(label) > width {
			label = runewidth.Truncate(label, width, "...")
		}
		fmt.Fprintf(w, "  %s  %s\n", runewidth.FillRight(label, width), countColor.Sprint(r.value))
	}
}

func nameRows(items []analysis.NameCount) []row {
	rows := make([]row, len(items))
	for i, it := range items {
		rows[i] = row{label: it.Name, value: strconv.Itoa(it.Count)}
	}
	return rows
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, sectionColor.Sprint(title))
}

func none(w io.Writer, what string) {
	fmt.Fprintln(w, dimColor.Sprintf("  no %s", what))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func writeSummary(w io.Writer, s analysis.Summary) {
	role := "thread"
	if s.Main {
		role = "main thread"
	}
	fmt.Fprintln(w, headerColor.Sprintf("== %s %d (%s) ==", role, s.TID, s.Tree))
	fmt.Fprintf(w, "nodes %d  max depth %d  lines %d  hits %d  truncated %s\n",
		s.Nodes, s.MaxDepth, s.Lines, s.Hits, yesNo(s.Truncated))
	a := s.Actions
	fmt.Fprintf(w, "actions %d: calls %d, returns %d, unwinds %d, jumps %d (%d taken), loops %d, recur locks %d, thread creations %d\n",
		a.Total(), a.Calls, a.Returns, a.Unwinds, a.Jumps, a.TakenJumps, a.Loops, a.RecurLocks, a.ThreadCreates)

	section(w, "longest invocations")
	writeTable(w, nameRows(s.Longest))

	section(w, "most called")
	if s.MostCalled.Empty {
		none(w, "functions found")
	} else {
		writeTable(w, nameRows(s.MostCalled.Top))
		fmt.Fprintf(w, "  %s called from: %s\n", s.MostCalled.Hottest, strings.Join(s.MostCalled.Callers, ", "))
	}

	section(w, "recursion")
	if len(s.Recursion) == 0 {
		none(w, "recursion")
	}
	for _, r := range s.Recursion {
		fmt.Fprintf(w, "  %s %s\n", strings.Join(r.Cycle, " -> "), dimColor.Sprintf("(from %s)", r.Parent))
	}

	section(w, "hot loop headers")
	if len(s.LoopHeaders) == 0 {
		none(w, "loops")
	} else {
		rows := make([]row, len(s.LoopHeaders))
		for i, l := range s.LoopHeaders {
			rows[i] = row{label: l.Loc.String(), value: strconv.Itoa(l.Count)}
		}
		writeTable(w, rows)
	}

	section(w, "widest fan-out")
	if len(s.FanOut) == 0 {
		none(w, "functions found")
	} else {
		writeTable(w, nameRows(s.FanOut))
	}

	g := s.Graph
	section(w, "call graph")
	fmt.Fprintf(w, "  functions %d, edges %d, levels %d\n", g.Functions, g.Edges, len(g.Levels))
	if len(g.SelfRecursive) > 0 {
		fmt.Fprintf(w, "  self-recursive: %s\n", strings.Join(g.SelfRecursive, ", "))
	}
	if len(g.Recursive) > 0 {
		fmt.Fprintf(w, "  in call cycles: %s\n", strings.Join(g.Recursive, ", "))
	}
	fmt.Fprintln(w)
}

// writeDiagnostics prints the forest's findings at or above min to w,
// colored by severity.
func writeDiagnostics(w io.Writer, bag *diag.Bag, baseDir string, min diag.Severity) {
	if bag == nil {
		return
	}
	items := diag.AtLeast(bag.Items(), min)
	if len(items) == 0 {
		return
	}
	text := diag.FormatShort(items, baseDir)
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case strings.HasPrefix(line, diag.SevError.String()):
			fmt.Fprint(w, errColor.Sprint(line))
		case strings.HasPrefix(line, diag.SevWarning.String()):
			fmt.Fprint(w, warnColor.Sprint(line))
		default:
			fmt.Fprint(w, line)
		}
	}
}

// readDiagLevel resolves the persistent --diagnostics flag.
func readDiagLevel(cmd *cobra.Command) (diag.Severity, error) {
	v, err := cmd.Root().PersistentFlags().GetString("diagnostics")
	if err != nil {
		return diag.SevInfo, fmt.Errorf("failed to get diagnostics flag: %w", err)
	}
	sev, err := diag.ParseSeverity(v)
	if err != nil {
		return diag.SevInfo, fmt.Errorf("invalid --diagnostics: %w", err)
	}
	return sev, nil
}

type jsonDiagnostic struct {
	Severity diag.Severity `json:"severity"`
	Code     string        `json:"code"`
	File     string        `json:"file,omitempty"`
	Line     int           `json:"line,omitempty"`
	Message  string        `json:"message"`
}

func diagnosticsJSON(bag *diag.Bag) []jsonDiagnostic {
	if bag == nil {
		return nil
	}
	out := make([]jsonDiagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, jsonDiagnostic{
			Severity: d.Severity,
			Code:     d.Code.ID(),
			File:     d.Primary.File,
			Line:     d.Primary.Line,
			Message:  d.Message,
		})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readFormat(value string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(value)); f {
	case "pretty", "json":
		return f, nil
	default:
		return "", fmt.Errorf("invalid --format value %q (expected pretty|json)", value)
	}
}
