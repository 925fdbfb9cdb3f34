package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"calltrace/internal/analysis"
	"calltrace/internal/exectree"
)

// explorer is the state behind `calltrace shell`: one forest, the selected
// thread tree and a cursor frame inside it.
type explorer struct {
	forest *exectree.Forest
	tree   *exectree.ThreadTree
	cur    exectree.NodeID
	out    io.Writer
}

var errQuit = errors.New("quit")

const shellHelp = `commands:
  threads              list thread trees (* marks the selected one)
  thread <tid|main>    select a thread tree
  ls                   list callees of the current frame
  cd <n|name|..|/>     enter callee n (or the first one called name), go up, or to the root
  pwd                  print the call path of the current frame
  actions [limit]      print the action list of the current frame (default 40)
  find <name>          list invocations of name in the selected tree
  lca <f> [<g>]        common ancestor of two invocations across the forest
  summary              analyses of the selected tree
  help                 this text
  exit                 leave the shell
`

func newExplorer(f *exectree.Forest, out io.Writer) (*explorer, error) {
	t, ok := f.Main()
	if !ok {
		if f.Len() == 0 {
			return nil, errNothingBuilt
		}
		t = f.Trees()[0]
	}
	return &explorer{forest: f, tree: t, cur: t.Root(), out: out}, nil
}

func (e *explorer) prompt() string {
	return fmt.Sprintf("%s:%s> ", e.tree.Label(), e.tree.Name(e.cur))
}

// exec runs one command line. errQuit asks the caller to stop.
func (e *explorer) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]
	switch name {
	case "help", "?":
		fmt.Fprint(e.out, shellHelp)
	case "exit", "quit":
		return errQuit
	case "threads":
		e.listThreads()
	case "thread":
		if len(args) != 1 {
			return errors.New("usage: thread <tid|main>")
		}
		trees, err := selectTrees(e.forest, args[0])
		if err != nil {
			return err
		}
		e.tree, e.cur = trees[0], trees[0].Root()
	case "ls":
		e.listChildren()
	case "cd":
		if len(args) != 1 {
			return errors.New("usage: cd <n|name|..|/>")
		}
		return e.cd(args[0])
	case "pwd":
		fmt.Fprintln(e.out, strings.Join(analysis.CallPath(e.tree, e.cur), " > "))
	case "actions":
		limit := 40
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid limit %q", args[0])
			}
			limit = n
		}
		e.listActions(limit)
	case "find":
		if len(args) != 1 {
			return errors.New("usage: find <name>")
		}
		ids := analysis.FindInvocations(e.tree, args[0], 20)
		if len(ids) == 0 {
			none(e.out, "invocations of "+args[0])
			return nil
		}
		for _, id := range ids {
			fmt.Fprintf(e.out, "  #%d  %s\n", id, strings.Join(analysis.CallPath(e.tree, id), " > "))
		}
	case "lca":
		a, b, err := pickInvocations(e.forest, args)
		if err != nil {
			return err
		}
		return writeLCA(e.out, a, b)
	case "summary":
		writeSummary(e.out, analysis.Summarize(e.tree))
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

func (e *explorer) listThreads() {
	for _, t := range e.forest.Trees() {
		mark := " "
		if t == e.tree {
			mark = "*"
		}
		kind := ""
		if t.Main {
			kind = " main"
		}
		fmt.Fprintf(e.out, "%s %-12s nodes %d, hits %d%s\n", mark, t.Label(), t.Len(), t.Hits, kind)
	}
}

func (e *explorer) listChildren() {
	kids := e.tree.Children(e.cur)
	if len(kids) == 0 {
		none(e.out, "callees")
		return
	}
	rows := make([]row, len(kids))
	for i, id := range kids {
		n := e.tree.Node(id)
		rows[i] = row{
			label: fmt.Sprintf("[%d] %s", i, e.tree.Name(id)),
			value: fmt.Sprintf("calls %d, actions %d", n.CallCount(), len(n.Actions)),
		}
	}
	writeTable(e.out, rows)
}

func (e *explorer) cd(arg string) error {
	switch arg {
	case "/":
		e.cur = e.tree.Root()
		return nil
	case "..":
		if p := e.tree.Parent(e.cur); p.IsValid() {
			e.cur = p
		}
		return nil
	}
	kids := e.tree.Children(e.cur)
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= len(kids) {
			return fmt.Errorf("no callee [%d] (have %d)", i, len(kids))
		}
		e.cur = kids[i]
		return nil
	}
	for _, id := range kids {
		if e.tree.Name(id) == arg {
			e.cur = id
			return nil
		}
	}
	return fmt.Errorf("%s is not called from %s", arg, e.tree.Name(e.cur))
}

func (e *explorer) listActions(limit int) {
	acts := e.tree.Node(e.cur).Actions
	for i, a := range acts {
		if i == limit {
			fmt.Fprintln(e.out, dimColor.Sprintf("  ... %d more", len(acts)-limit))
			return
		}
		fmt.Fprintf(e.out, "  %3d  %s\n", i, a.Event)
	}
}

// childNames and threadLabels feed tab completion.
func (e *explorer) childNames(string) []string {
	kids := e.tree.Children(e.cur)
	out := make([]string, 0, len(kids)+2)
	out = append(out, "..", "/")
	seen := make(map[string]bool, len(kids))
	for _, id := range kids {
		if n := e.tree.Name(id); !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func (e *explorer) threadLabels(string) []string {
	out := []string{"main"}
	for _, t := range e.forest.Trees() {
		out = append(out, strconv.FormatUint(t.TID, 10))
	}
	return out
}

// runScript executes commands read from r, one per line, as when stdin is
// not a terminal. Command errors are reported to errOut and do not stop it.
func (e *explorer) runScript(r io.Reader, errOut io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		err := e.exec(sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(errOut, errColor.Sprint("error: ")+err.Error())
		}
	}
	return sc.Err()
}
