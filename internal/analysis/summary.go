package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"calltrace/internal/callgraph"
	"calltrace/internal/exectree"
)

// Summary bundles every per-tree analysis; it is what the CLI prints.
type Summary struct {
	Tree      string `json:"tree"`
	TID       uint64 `json:"tid"`
	Main      bool   `json:"main"`
	Nodes     int    `json:"nodes"`
	MaxDepth  int    `json:"max_depth"`
	Lines     int    `json:"lines"`
	Hits      int    `json:"hits"`
	Truncated bool   `json:"truncated"`

	Actions     ActionCounts     `json:"actions"`
	Longest     []NameCount      `json:"longest"`
	Recursion   []RecurEntry     `json:"recursion"`
	MostCalled  MostCalledReport `json:"most_called"`
	LoopHeaders []LocCount       `json:"loop_headers"`
	FanOut      []NameCount      `json:"fan_out"`
	Graph       callgraph.Report `json:"call_graph"`
}

func Summarize(t *exectree.ThreadTree) Summary {
	return Summary{
		Tree:      t.Label(),
		TID:       t.TID,
		Main:      t.Main,
		Nodes:     t.Len(),
		MaxDepth:  t.MaxDepth,
		Lines:     t.Lines,
		Hits:      t.Hits,
		Truncated: t.Truncated,

		Actions:     CountActions(t),
		Longest:     LongestInvocations(t),
		Recursion:   RecursionCycles(t),
		MostCalled:  MostCalled(t),
		LoopHeaders: HotLoopHeaders(t),
		FanOut:      WidestFanOut(t),
		Graph:       CallGraph(t),
	}
}

// SummarizeForest summarizes every tree of f in forest order. Trees are
// read-only after the build, so they are analyzed concurrently; jobs <= 0
// means GOMAXPROCS.
func SummarizeForest(ctx context.Context, f *exectree.Forest, jobs int) ([]Summary, error) {
	trees := f.Trees()
	out := make([]Summary, len(trees))
	if len(trees) == 0 {
		return out, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(trees)))
	for i, t := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = Summarize(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
