package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"calltrace/internal/analysis"
	"calltrace/internal/exectree"
)

var lcaCmd = &cobra.Command{
	Use:   "lca <guard-dir> <func> [<func2>]",
	Short: "Find the lowest common ancestor of two invocations",
	Long: `With one function name, takes its first two invocations in BFS order across
the forest. With two names, takes the first invocation of each. Invocations
in different threads have no common ancestor.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runLCA,
}

func init() {
	addReplayFlags(lcaCmd)
	lcaCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type lcaJSON struct {
	A        refJSON  `json:"a"`
	B        refJSON  `json:"b"`
	Found    bool     `json:"found"`
	Ancestor *refJSON `json:"ancestor,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

type refJSON struct {
	Thread uint64   `json:"thread"`
	Name   string   `json:"name"`
	Path   []string `json:"path"`
}

func toRefJSON(r analysis.NodeRef) refJSON {
	return refJSON{Thread: r.Tree.TID, Name: r.Name(), Path: analysis.CallPath(r.Tree, r.ID)}
}

func runLCA(cmd *cobra.Command, args []string) error {
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

	a, b, err := pickInvocations(f, args[1:])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != "json" {
		return writeLCA(out, a, b)
	}

	anc, lcaErr := analysis.LCA(a, b)
	if lcaErr != nil && !errors.Is(lcaErr, analysis.ErrNoCommonAncestor) {
		return lcaErr
	}
	res := lcaJSON{A: toRefJSON(a), B: toRefJSON(b), Found: lcaErr == nil}
	if lcaErr == nil {
		r := toRefJSON(anc)
		res.Ancestor = &r
	} else {
		res.Reason = lcaErr.Error()
	}
	return writeJSON(out, res)
}

// pickInvocations resolves one name to its first two invocations (BFS order
// across the forest) or two names to the first invocation of each.
func pickInvocations(f *exectree.Forest, names []string) (analysis.NodeRef, analysis.NodeRef, error) {
	var none analysis.NodeRef
	switch len(names) {
	case 1:
		refs := analysis.FindForestInvocations(f, names[0], 2)
		if len(refs) < 2 {
			return none, none, fmt.Errorf("%s: need two invocations, found %d", names[0], len(refs))
		}
		return refs[0], refs[1], nil
	case 2:
		ra := analysis.FindForestInvocations(f, names[0], 1)
		if len(ra) == 0 {
			return none, none, fmt.Errorf("%s: no invocation found", names[0])
		}
		rb := analysis.FindForestInvocations(f, names[1], 1)
		if len(rb) == 0 {
			return none, none, fmt.Errorf("%s: no invocation found", names[1])
		}
		return ra[0], rb[0], nil
	}
	return none, none, fmt.Errorf("want one or two function names, got %d", len(names))
}

// writeLCA prints both invocation paths and their common ancestor.
func writeLCA(out io.Writer, a, b analysis.NodeRef) error {
	anc, err := analysis.LCA(a, b)
	if err != nil && !errors.Is(err, analysis.ErrNoCommonAncestor) {
		return err
	}
	for _, r := range []analysis.NodeRef{a, b} {
		fmt.Fprintf(out, "thread %d: %s\n", r.Tree.TID, strings.Join(analysis.CallPath(r.Tree, r.ID), " > "))
	}
	if err != nil {
		fmt.Fprintln(out, warnColor.Sprint("no common ancestor"))
		if a.Tree != b.Tree {
			fmt.Fprintln(out, dimColor.Sprint("  invocations are in different threads"))
		}
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", okColor.Sprint("common ancestor:"), strings.Join(analysis.CallPath(anc.Tree, anc.ID), " > "))
	return nil
}
