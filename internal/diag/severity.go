package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic. A replay failure is an
// error, a forest oddity a warning, a truncated replay info.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// MarshalText gives the lower-case name used in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// ParseSeverity reads info, warning (or warn) and error in any case.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "info":
		return SevInfo, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevInfo, fmt.Errorf("unknown severity %q (expected info|warning|error)", v)
}

// AtLeast keeps the diagnostics whose severity is min or higher, in order.
func AtLeast(items []Diagnostic, min Severity) []Diagnostic {
	out := make([]Diagnostic, 0, len(items))
	for _, d := range items {
		if d.Severity >= min {
			out = append(out, d)
		}
	}
	return out
}
