package diag

import (
	"path/filepath"
	"strings"
)

// FormatShort renders one line per diagnostic: "SEVERITY ID path[:line]: message".
// Paths under baseDir are shown relative to it. Notes follow, indented.
func FormatShort(diags []Diagnostic, baseDir string) string {
	if len(diags) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range diags {
		sb.WriteString(d.Severity.String())
		sb.WriteByte(' ')
		sb.WriteString(d.Code.ID())
		sb.WriteByte(' ')
		sb.WriteString(relPosition(d.Primary, baseDir).String())
		sb.WriteString(": ")
		sb.WriteString(firstLine(d.Message))
		sb.WriteByte('\n')
		for _, n := range d.Notes {
			sb.WriteString("  note: ")
			sb.WriteString(relPosition(n.Pos, baseDir).String())
			sb.WriteString(": ")
			sb.WriteString(firstLine(n.Msg))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func relPosition(p Position, baseDir string) Position {
	if baseDir == "" || p.File == "" {
		return p
	}
	if rel, err := filepath.Rel(baseDir, p.File); err == nil && !strings.HasPrefix(rel, "..") {
		p.File = filepath.ToSlash(rel)
	}
	return p
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
