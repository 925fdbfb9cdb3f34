package guard

import (
	"errors"
	"fmt"

	"calltrace/internal/srcloc"
)

var (
	// errMismatch means a rule's fixed prefix did not match; the next rule is tried.
	errMismatch = errors.New("rule prefix mismatch")

	ErrUnrecognized  = errors.New("no grammar matches the line")
	ErrRepeatedSkip  = errors.New("invocation prefix repeated after skip")
	ErrDanglingInvoc = errors.New("invocation prefix without enter clause")
)

// FormatError reports a line whose rule prefix matched but whose fields are malformed.
type FormatError struct {
	Rule string
	Line string
	Err  error
}

func (e *FormatError) Error() string {
	line := e.Line
	if len(line) > 120 {
		line = line[:117] + "..."
	}
	if e.Rule == "" {
		return fmt.Sprintf("malformed guard line %q: %v", line, e.Err)
	}
	return fmt.Sprintf("%s: malformed guard line %q: %v", e.Rule, line, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// SkipSignal asks the caller to classify line[Consumed:] again.
// It is produced when an invocation prefix parsed but no enter clause follows it.
type SkipSignal struct {
	Consumed int
}

func (s *SkipSignal) Error() string {
	return fmt.Sprintf("skip %d bytes and reclassify", s.Consumed)
}

// Result is the outcome of classifying one line. A line may carry an event,
// a value hit, both (Br Guard) or only a value hit (Unconditional Branch Value).
type Result struct {
	Event       Event
	HasEvent    bool
	ValueHit    srcloc.Loc
	HasValueHit bool
	// Skipped is the number of bytes dropped by a skip retry.
	Skipped int
}

type rule struct {
	name  string
	parse func(line string) (Result, error)
}

// rules are tried in order; the first one whose prefix matches decides.
var rules = []rule{
	{name: "value", parse: parseValueHit},
	{name: "jump", parse: parseJump},
	{name: "loop", parse: parseLoop},
	{name: "recur", parse: parseRecur},
	{name: "thread", parse: parseThread},
	{name: "br", parse: parseBrGuard},
	{name: "call", parse: parseCall},
	{name: "exit", parse: parseExit},
}

// Rules lists rule names in dispatch order.
func Rules() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}

// ClassifyOnce runs a single dispatch pass. A *SkipSignal error is returned
// as is, so callers can observe it.
func ClassifyOnce(line string) (Result, error) {
	for _, r := range rules {
		res, err := r.parse(line)
		if err == errMismatch {
			continue
		}
		if err != nil {
			var skip *SkipSignal
			if errors.As(err, &skip) {
				return Result{}, err
			}
			return Result{}, &FormatError{Rule: r.name, Line: line, Err: err}
		}
		return res, nil
	}
	return Result{}, &FormatError{Line: line, Err: ErrUnrecognized}
}

// Classify turns one trace line (without newline) into a Result.
// A skip signal is followed at most once; a second one is a format error.
func Classify(line string) (Result, error) {
	res, err := ClassifyOnce(line)
	if err == nil {
		return res, nil
	}
	var skip *SkipSignal
	if !errors.As(err, &skip) {
		return Result{}, err
	}
	if skip.Consumed <= 0 || skip.Consumed >= len(line) {
		return Result{}, &FormatError{Rule: "call", Line: line, Err: ErrDanglingInvoc}
	}
	res, err = ClassifyOnce(line[skip.Consumed:])
	if err != nil {
		if errors.As(err, &skip) {
			return Result{}, &FormatError{Rule: "call", Line: line, Err: ErrRepeatedSkip}
		}
		return Result{}, err
	}
	res.Skipped = skip.Consumed
	return res, nil
}
