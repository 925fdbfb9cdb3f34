package srcloc

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// Constraint is a source range of interest: start line, start col, end line, end col.
type Constraint struct {
	File  string
	Range [4]uint32
}

var ErrBadConstraint = errors.New("bad constraint")

// Start returns the first position of the range.
func (c Constraint) Start() Loc {
	return Loc{File: c.File, Line: c.Range[0], Col: c.Range[1]}
}

// End returns the last position of the range.
func (c Constraint) End() Loc {
	return Loc{File: c.File, Line: c.Range[2], Col: c.Range[3]}
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s:%d:%d:%d:%d", c.File, c.Range[0], c.Range[1], c.Range[2], c.Range[3])
}

// Validate checks that the range is non-empty and ordered.
func (c Constraint) Validate() error {
	if c.File == "" {
		return fmt.Errorf("%w: empty file", ErrBadConstraint)
	}
	for i, v := range c.Range {
		if v == 0 {
			return fmt.Errorf("%w: range[%d] is zero", ErrBadConstraint, i)
		}
	}
	if c.Range[0] > c.Range[2] || (c.Range[0] == c.Range[2] && c.Range[1] > c.Range[3]) {
		return fmt.Errorf("%w: start %d:%d after end %d:%d", ErrBadConstraint, c.Range[0], c.Range[1], c.Range[2], c.Range[3])
	}
	return nil
}

// IsHit reports whether loc is exactly the start of the constraint range.
func (c Constraint) IsHit(loc Loc) bool {
	if !loc.Valid() || loc.Line != c.Range[0] || loc.Col != c.Range[1] {
		return false
	}
	return SamePath(loc.File, c.File)
}

// NearHit reports whether loc is in the same file on a line covered by the range.
func (c Constraint) NearHit(loc Loc) bool {
	if !loc.Valid() || loc.Line < c.Range[0] || loc.Line > c.Range[2] {
		return false
	}
	return SamePath(loc.File, c.File)
}

// Inside reports whether loc falls within the range, inclusive at both ends.
// Paths are matched with SamePath, positions by (line, column).
func (l Loc) Inside(c Constraint) bool {
	if !l.Valid() || !SamePath(l.File, c.File) {
		return false
	}
	return !before(l, c.Start()) && !before(c.End(), l)
}

// before orders by line and column only.
func before(a, b Loc) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Col < b.Col)
}

// SamePath compares two paths after cleaning and NFC normalisation.
func SamePath(a, b string) bool {
	if a == b {
		return true
	}
	return normPath(a) == normPath(b)
}

func normPath(p string) string {
	return norm.NFC.String(filepath.Clean(p))
}

// ParseConstraint reads file:l1:c1:l2:c2; the file may contain colons.
func ParseConstraint(s string) (Constraint, error) {
	parts := make([]string, 0, 4)
	rest := s
	for range 4 {
		i := strings.LastIndexByte(rest, ':')
		if i < 0 {
			return Constraint{}, fmt.Errorf("%w: %q: want file:line:col:line:col", ErrBadConstraint, s)
		}
		parts = append(parts, rest[i+1:])
		rest = rest[:i]
	}
	c := Constraint{File: rest}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Constraint{}, fmt.Errorf("%w: %q: %w", ErrBadConstraint, s, err)
		}
		v, err := safecast.Conv[uint32](n)
		if err != nil {
			return Constraint{}, fmt.Errorf("%w: %q: %w", ErrBadConstraint, s, err)
		}
		// parts were collected right to left
		c.Range[3-i] = v
	}
	if err := c.Validate(); err != nil {
		return Constraint{}, err
	}
	return c, nil
}

// FromInts builds a constraint from config values.
func FromInts(file string, r []int64) (Constraint, error) {
	if len(r) != 4 {
		return Constraint{}, fmt.Errorf("%w: range needs 4 values, got %d", ErrBadConstraint, len(r))
	}
	c := Constraint{File: file}
	for i, v := range r {
		u, err := safecast.Conv[uint32](v)
		if err != nil {
			return Constraint{}, fmt.Errorf("%w: range[%d]: %w", ErrBadConstraint, i, err)
		}
		c.Range[i] = u
	}
	if err := c.Validate(); err != nil {
		return Constraint{}, err
	}
	return c, nil
}
