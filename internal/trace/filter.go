package trace

// threadFilter drops thread and line events of files not in keep.
// Driver and pass events always pass.
type threadFilter struct {
	next Tracer
	keep map[string]struct{}
}

// FilterThreads wraps t so only the listed thread files reach it.
// An empty list returns t unchanged.
func FilterThreads(t Tracer, threads []string) Tracer {
	if len(threads) == 0 || t == nil {
		return t
	}
	keep := make(map[string]struct{}, len(threads))
	for _, th := range threads {
		keep[th] = struct{}{}
	}
	return &threadFilter{next: t, keep: keep}
}

func (f *threadFilter) Emit(ev *Event) {
	if ev.Thread != "" {
		if _, ok := f.keep[ev.Thread]; !ok {
			return
		}
	}
	f.next.Emit(ev)
}

func (f *threadFilter) Flush() error  { return f.next.Flush() }
func (f *threadFilter) Close() error  { return f.next.Close() }
func (f *threadFilter) Level() Level  { return f.next.Level() }
func (f *threadFilter) Enabled() bool { return f.next.Enabled() }

// Unwrap exposes the filtered tracer.
func (f *threadFilter) Unwrap() Tracer { return f.next }
