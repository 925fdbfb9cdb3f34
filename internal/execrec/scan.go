package execrec

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"calltrace/internal/exectree"
	"calltrace/internal/progress"
	"calltrace/internal/trace"
)

// Verdict is the scan result for one record.
type Verdict struct {
	Name      string `json:"name"`
	Dir       string `json:"dir"`
	Related   bool   `json:"related"` // at least one constraint hit in some thread
	Hits      int    `json:"hits"`
	Trees     int    `json:"trees"`
	Truncated int    `json:"truncated"` // threads that stopped at the hit limit
	Cached    bool   `json:"cached"`    // served from the verdict cache
}

type ScanOptions struct {
	// Forest configures each record's build. Forest.Jobs <= 0 replays the
	// files of one record sequentially, since records already run in parallel.
	Forest exectree.ForestOptions
	// Jobs bounds concurrent records; <= 0 means GOMAXPROCS.
	Jobs     int
	Cache    *Cache
	Progress progress.Sink
	Tracer   trace.Tracer
}

// Scan discovers the records under guardsRoot and scans them.
func Scan(ctx context.Context, guardsRoot string, opts ScanOptions) ([]Verdict, error) {
	recs, err := Discover(guardsRoot)
	if err != nil {
		return nil, err
	}
	return ScanRecords(ctx, recs, opts)
}

// ScanRecords builds every record's forest and returns verdicts in record
// order. Any failure cancels the remaining work; no partial result is
// returned.
func ScanRecords(ctx context.Context, recs []Record, opts ScanOptions) ([]Verdict, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeDriver, "scan", trace.CurrentSpan(ctx).SpanID).
		WithExtra("records", strconv.Itoa(len(recs)))
	defer span.End("")

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	progress.Queue(opts.Progress, progress.StageScan, names)

	verdicts := make([]Verdict, len(recs))
	if len(recs) == 0 {
		return verdicts, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	fo := opts.Forest
	if fo.Jobs <= 0 {
		fo.Jobs = 1
	}
	fo.Replay.Tracer = tracer
	// прогресс по отдельным файлам тут не нужен
	fo.Progress = nil

	g, gctx := errgroup.WithContext(trace.WithSpan(ctx, span))
	g.SetLimit(min(jobs, len(recs)))
	for i, rec := range recs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			progress.Emit(opts.Progress, progress.Event{File: rec.Name, Stage: progress.StageScan, Status: progress.StatusWorking})
			start := time.Now()
			v, err := scanOne(gctx, rec, fo, opts.Cache)
			ev := progress.Event{File: rec.Name, Stage: progress.StageScan, Status: progress.StatusDone, Elapsed: time.Since(start)}
			if err != nil {
				ev.Status, ev.Err = progress.StatusError, err
				progress.Emit(opts.Progress, ev)
				return err
			}
			progress.Emit(opts.Progress, ev)
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.WithExtra("error", err.Error())
		return nil, err
	}
	return verdicts, nil
}

func scanOne(ctx context.Context, rec Record, fo exectree.ForestOptions, cache *Cache) (Verdict, error) {
	v := Verdict{Name: rec.Name, Dir: rec.Dir}

	var key Digest
	if cache != nil {
		var err error
		key, err = KeyFor(rec, KeyParams{
			Constraint:    fo.Replay.Constraint,
			TruncCount:    fo.Replay.TruncCount,
			VerifyReturns: fo.Replay.VerifyReturns,
		})
		if err != nil {
			return Verdict{}, err
		}
		hit, err := cache.Get(key, &v)
		if err != nil {
			return Verdict{}, fmt.Errorf("record %s: verdict cache: %w", rec.Name, err)
		}
		if hit {
			v.Cached = true
			return v, nil
		}
	}

	f, err := exectree.BuildForest(ctx, rec.Dir, fo)
	if err != nil {
		return Verdict{}, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	if err := f.Err(); err != nil {
		return Verdict{}, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	v.Hits = f.TotalHits()
	v.Related = v.Hits > 0
	v.Trees = f.Len()
	v.Truncated = f.TruncatedCount()

	if cache != nil {
		if err := cache.Put(key, v); err != nil {
			return Verdict{}, fmt.Errorf("record %s: verdict cache: %w", rec.Name, err)
		}
	}
	return v, nil
}

// Related keeps the verdicts of records that reached the constraint.
func Related(verdicts []Verdict) []Verdict {
	var out []Verdict
	for _, v := range verdicts {
		if v.Related {
			out = append(out, v)
		}
	}
	return out
}
