package progress

import (
	"path/filepath"
	"sort"
	"strings"
)

// DisplayNames turns paths into short, sorted, de-duplicated labels
// relative to baseDir (when they are inside it).
func DisplayNames(files []string, baseDir string) []string {
	if len(files) == 0 {
		return files
	}
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}

	out := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		name := DisplayName(file, base)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DisplayName is DisplayNames for a single path; base must be absolute or empty.
func DisplayName(file, base string) string {
	path := filepath.Clean(file)
	if base != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}
