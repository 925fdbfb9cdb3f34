package srcloc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Loc is a source position reported by the instrumentation.
// The zero value is the null location.
type Loc struct {
	File string
	Line uint32
	Col  uint32
}

// Null is the location printed as NullLoc in guard traces.
var Null Loc

var (
	ErrEmptyLoc  = errors.New("empty location")
	ErrNoLine    = errors.New("location has no line/column")
	ErrEmptyPath = errors.New("location has empty path")
)

// IsNull reports whether l is the null location.
func (l Loc) IsNull() bool {
	return l.File == ""
}

// Valid reports whether l names a real file position (1-based).
func (l Loc) Valid() bool {
	return l.File != "" && l.Line >= 1 && l.Col >= 1
}

func (l Loc) String() string {
	if l.IsNull() {
		return "NullLoc"
	}
	return l.File + ":" + strconv.FormatUint(uint64(l.Line), 10) + ":" + strconv.FormatUint(uint64(l.Col), 10)
}

// MarshalText renders the literal form, so reports carry "a.c:3:7".
func (l Loc) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Loc) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Compare orders locations by file, line and column; null sorts first.
func (l Loc) Compare(o Loc) int {
	switch {
	case l.File != o.File:
		return strings.Compare(l.File, o.File)
	case l.Line != o.Line:
		if l.Line < o.Line {
			return -1
		}
		return 1
	case l.Col != o.Col:
		if l.Col < o.Col {
			return -1
		}
		return 1
	}
	return 0
}

// Parse reads a location literal: path:line:col, or NullLoc/null in any case.
// The path may itself contain colons; line and column are taken from the right.
func Parse(s string) (Loc, error) {
	if s == "" {
		return Null, ErrEmptyLoc
	}
	if strings.EqualFold(s, "nullloc") || strings.EqualFold(s, "null") {
		return Null, nil
	}
	colSep := strings.LastIndexByte(s, ':')
	if colSep < 0 {
		return Null, fmt.Errorf("%q: %w", s, ErrNoLine)
	}
	lineSep := strings.LastIndexByte(s[:colSep], ':')
	if lineSep < 0 {
		return Null, fmt.Errorf("%q: %w", s, ErrNoLine)
	}
	path := s[:lineSep]
	if path == "" {
		return Null, fmt.Errorf("%q: %w", s, ErrEmptyPath)
	}
	line, err := parsePos(s[lineSep+1 : colSep])
	if err != nil {
		return Null, fmt.Errorf("%q: line: %w", s, err)
	}
	col, err := parsePos(s[colSep+1:])
	if err != nil {
		return Null, fmt.Errorf("%q: column: %w", s, err)
	}
	return Loc{File: path, Line: line, Col: col}, nil
}

// MustParse is Parse for literals in tests and seeds.
func MustParse(s string) Loc {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

func parsePos(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("position is 1-based")
	}
	return safecast.Conv[uint32](n)
}
