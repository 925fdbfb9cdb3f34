package guard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"calltrace/internal/srcloc"
)

const (
	prefixValue       = "Unconditional Branch Value:"
	prefixMergeBr     = "Merge Br Guard:"
	prefixSwitch      = "Switch Guard:"
	prefixIndirectBr  = "IndirectBr Guard:"
	prefixLoopHit     = "Loop Hit:"
	prefixLoopExceed  = "Loop Limit Exceed:"
	prefixLoopOut     = "Out of Loop:"
	prefixLoopNoStart = "Loop end without loop start:"
	lineRecurLocked   = "Recur Lock locked"
	lineRecurReleased = "Recur Lock released"
	prefixThread      = "Thread Creation:"
	prefixBr          = "Br Guard:"
	prefixInvocation  = "Function Invocation:"
	prefixEnter       = "enter "
	prefixReturn      = "return from "
	prefixUnwind      = "unwind from "

	countMarker = " at count"
)

func parseValueHit(line string) (Result, error) {
	rest, ok := strings.CutPrefix(line, prefixValue)
	if !ok {
		return Result{}, errMismatch
	}
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return Result{}, fmt.Errorf("want 1 location, got %d fields", len(fields))
	}
	loc, err := srcloc.Parse(fields[0])
	if err != nil {
		return Result{}, err
	}
	return Result{ValueHit: loc, HasValueHit: true}, nil
}

func parseJump(line string) (Result, error) {
	var kind JumpKind
	var rest string
	switch {
	case strings.HasPrefix(line, prefixMergeBr):
		kind, rest = JumpMergeBranch, line[len(prefixMergeBr):]
	case strings.HasPrefix(line, prefixSwitch):
		kind, rest = JumpSwitch, line[len(prefixSwitch):]
	case strings.HasPrefix(line, prefixIndirectBr):
		kind, rest = JumpIndirect, line[len(prefixIndirectBr):]
	default:
		return Result{}, errMismatch
	}
	fields := strings.Fields(rest)
	if len(fields) != 3 {
		return Result{}, fmt.Errorf("want cond/taken/dest, got %d fields", len(fields))
	}
	ev, err := jumpFields(kind, fields)
	if err != nil {
		return Result{}, err
	}
	return Result{Event: ev, HasEvent: true}, nil
}

func jumpFields(kind JumpKind, fields []string) (Event, error) {
	cond, err := srcloc.Parse(fields[0])
	if err != nil {
		return Event{}, fmt.Errorf("condition: %w", err)
	}
	taken, err := parseFlag(fields[1])
	if err != nil {
		return Event{}, err
	}
	dest, err := srcloc.Parse(fields[2])
	if err != nil {
		return Event{}, fmt.Errorf("destination: %w", err)
	}
	return JumpEvent(kind, cond, taken, dest), nil
}

func parseLoop(line string) (Result, error) {
	var (
		kind LoopKind
		rest string
	)
	switch {
	case strings.HasPrefix(line, prefixLoopHit):
		kind, rest = LoopHit, line[len(prefixLoopHit):]
	case strings.HasPrefix(line, prefixLoopExceed):
		kind, rest = LoopExceed, line[len(prefixLoopExceed):]
	case strings.HasPrefix(line, prefixLoopOut):
		kind, rest = LoopOut, line[len(prefixLoopOut):]
	case strings.HasPrefix(line, prefixLoopNoStart):
		kind, rest = LoopNoStart, line[len(prefixLoopNoStart):]
	default:
		return Result{}, errMismatch
	}

	if kind == LoopNoStart {
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return Result{}, fmt.Errorf("want header/exit, got %d fields", len(fields))
		}
		header, err := srcloc.Parse(fields[0])
		if err != nil {
			return Result{}, fmt.Errorf("header: %w", err)
		}
		out, err := srcloc.Parse(fields[1])
		if err != nil {
			return Result{}, fmt.Errorf("exit: %w", err)
		}
		return Result{Event: LoopEvent(kind, header, out, 0), HasEvent: true}, nil
	}

	locs, count, err := splitCount(rest)
	if err != nil {
		return Result{}, err
	}
	fields := strings.Fields(locs)
	want := 1
	if kind == LoopOut {
		want = 2
	}
	if len(fields) != want {
		return Result{}, fmt.Errorf("want %d locations before count, got %d", want, len(fields))
	}
	header, err := srcloc.Parse(fields[0])
	if err != nil {
		return Result{}, fmt.Errorf("header: %w", err)
	}
	var out srcloc.Loc
	if kind == LoopOut {
		if out, err = srcloc.Parse(fields[1]); err != nil {
			return Result{}, fmt.Errorf("exit: %w", err)
		}
	}
	return Result{Event: LoopEvent(kind, header, out, count), HasEvent: true}, nil
}

// splitCount separates "<locs> at count<N>"; N may be preceded by spaces.
func splitCount(s string) (string, uint64, error) {
	i := strings.LastIndex(s, countMarker)
	if i < 0 {
		return "", 0, errors.New("missing iteration count")
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s[i+len(countMarker):]), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("iteration count: %w", err)
	}
	return s[:i], n, nil
}

func parseRecur(line string) (Result, error) {
	switch line {
	case lineRecurLocked:
		return Result{Event: RecurLockEvent(true), HasEvent: true}, nil
	case lineRecurReleased:
		return Result{Event: RecurLockEvent(false), HasEvent: true}, nil
	default:
		return Result{}, errMismatch
	}
}

func parseThread(line string) (Result, error) {
	rest, ok := strings.CutPrefix(line, prefixThread)
	if !ok {
		return Result{}, errMismatch
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return Result{}, fmt.Errorf("want location and thread id, got %d fields", len(fields))
	}
	loc, err := srcloc.Parse(fields[0])
	if err != nil {
		return Result{}, err
	}
	tid, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Result{}, fmt.Errorf("thread id: %w", err)
	}
	return Result{Event: ThreadCreateEvent(loc, tid), HasEvent: true}, nil
}

func parseBrGuard(line string) (Result, error) {
	rest, ok := strings.CutPrefix(line, prefixBr)
	if !ok {
		return Result{}, errMismatch
	}
	fields := strings.Fields(rest)
	if len(fields) != 4 {
		return Result{}, fmt.Errorf("want value/cond/taken/dest, got %d fields", len(fields))
	}
	value, err := srcloc.Parse(fields[0])
	if err != nil {
		return Result{}, fmt.Errorf("value: %w", err)
	}
	ev, err := jumpFields(JumpMergeBranch, fields[1:])
	if err != nil {
		return Result{}, err
	}
	return Result{Event: ev, HasEvent: true, ValueHit: value, HasValueHit: true}, nil
}

func parseCall(line string) (Result, error) {
	var (
		invoc    srcloc.Loc
		hasInvoc bool
		rest     = line
	)
	if after, ok := strings.CutPrefix(line, prefixInvocation); ok {
		trimmed := strings.TrimLeft(after, " \t")
		end := strings.IndexAny(trimmed, " \t")
		if end < 0 {
			end = len(trimmed)
		}
		loc, err := srcloc.Parse(trimmed[:end])
		if err != nil {
			return Result{}, fmt.Errorf("invocation: %w", err)
		}
		invoc, hasInvoc = loc, true
		consumed := len(line) - len(trimmed) + end
		for consumed < len(line) && (line[consumed] == ' ' || line[consumed] == '\t') {
			consumed++
		}
		rest = line[consumed:]
		if !strings.HasPrefix(rest, prefixEnter) {
			return Result{}, &SkipSignal{Consumed: consumed}
		}
	} else if !strings.HasPrefix(line, prefixEnter) {
		return Result{}, errMismatch
	}
	name, err := funcName(rest[len(prefixEnter):])
	if err != nil {
		return Result{}, err
	}
	return Result{Event: CallEvent(name, invoc, hasInvoc), HasEvent: true}, nil
}

func parseExit(line string) (Result, error) {
	if rest, ok := strings.CutPrefix(line, prefixReturn); ok {
		name, err := funcName(rest)
		if err != nil {
			return Result{}, err
		}
		return Result{Event: ReturnEvent(name), HasEvent: true}, nil
	}
	if rest, ok := strings.CutPrefix(line, prefixUnwind); ok {
		name, err := funcName(rest)
		if err != nil {
			return Result{}, err
		}
		return Result{Event: UnwindEvent(name), HasEvent: true}, nil
	}
	return Result{}, errMismatch
}

// funcName takes the text up to the first '('.
func funcName(s string) (string, error) {
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty function name")
	}
	return s, nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("branch flag %q is not 0 or 1", s)
	}
}
