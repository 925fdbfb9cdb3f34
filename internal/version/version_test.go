package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = origV, origC, origD })
}

func withoutColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func TestLine(t *testing.T) {
	withoutColor(t)
	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.1.0-dev", "", "", "calltrace 0.1.0-dev"},
		{"1.2.3", "abc123", "", "calltrace 1.2.3 (commit abc123)"},
		{"1.2.3", "abc123", "2026-01-15", "calltrace 1.2.3 (commit abc123, built 2026-01-15)"},
		{"nightly", "", "2026-01-15", "calltrace nightly (built 2026-01-15)"},
	}
	for _, tt := range tests {
		withVersion(t, tt.version, tt.commit, tt.date)
		if got := Line(); got != tt.want {
			t.Errorf("Line() = %q, want %q", got, tt.want)
		}
	}
}

func TestColoredKeepsText(t *testing.T) {
	orig := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = orig })
	withVersion(t, "2.0.1-rc1", "", "")

	got := Colored()
	if got == "2.0.1-rc1" {
		t.Fatalf("expected escape codes in %q", got)
	}
	color.NoColor = true
	if got := Colored(); got != "2.0.1-rc1" {
		t.Fatalf("Colored() without color = %q", got)
	}
}

func TestCurrent(t *testing.T) {
	withVersion(t, "1.0.0", "deadbeef", "")
	info := Current()
	if info.Version != "1.0.0" || info.GitCommit != "deadbeef" || info.BuildDate != "" {
		t.Fatalf("Current() = %+v", info)
	}
}
