package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"calltrace/internal/exectree"
	"calltrace/internal/srcloc"
)

const configFileName = "calltrace.toml"

type fileConfig struct {
	Replay     replayConfig     `toml:"replay"`
	Constraint constraintConfig `toml:"constraint"`
	Scan       scanConfig       `toml:"scan"`
}

type replayConfig struct {
	TruncCount    int  `toml:"trunc_count"`
	VerifyReturns bool `toml:"verify_returns"`
	Jobs          int  `toml:"jobs"`
}

type constraintConfig struct {
	File  string  `toml:"file"`
	Range []int64 `toml:"range"`
}

type scanConfig struct {
	Cache bool `toml:"cache"`
}

// settings are the resolved knobs of one command: defaults, then the config
// file, then flags.
type settings struct {
	ConfigPath    string
	Constraint    *srcloc.Constraint
	TruncCount    int
	VerifyReturns bool
	Jobs          int
	Cache         bool
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Replay: replayConfig{TruncCount: 3, VerifyReturns: true},
		Scan:   scanConfig{Cache: true},
	}
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadConfig(path string) (settings, error) {
	cfg := defaultFileConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return settings{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return settings{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Replay.TruncCount < 0 {
		return settings{}, fmt.Errorf("%s: [replay].trunc_count must be >= 0", path)
	}
	if cfg.Replay.Jobs < 0 {
		return settings{}, fmt.Errorf("%s: [replay].jobs must be >= 0", path)
	}

	s := settings{
		ConfigPath:    path,
		TruncCount:    cfg.Replay.TruncCount,
		VerifyReturns: cfg.Replay.VerifyReturns,
		Jobs:          cfg.Replay.Jobs,
		Cache:         cfg.Scan.Cache,
	}
	if meta.IsDefined("constraint") {
		if !meta.IsDefined("constraint", "file") || strings.TrimSpace(cfg.Constraint.File) == "" {
			return settings{}, fmt.Errorf("%s: missing [constraint].file", path)
		}
		if !meta.IsDefined("constraint", "range") {
			return settings{}, fmt.Errorf("%s: missing [constraint].range", path)
		}
		c, err := srcloc.FromInts(cfg.Constraint.File, cfg.Constraint.Range)
		if err != nil {
			return settings{}, fmt.Errorf("%s: [constraint]: %w", path, err)
		}
		s.Constraint = &c
	}
	return s, nil
}

// addReplayFlags registers the overrides shared by every command that
// replays traces.
func addReplayFlags(cmd *cobra.Command) {
	cmd.Flags().Int("trunc-count", 0, "stop a thread's replay after this many constraint hits (0 disables)")
	cmd.Flags().Int("jobs", 0, "max parallel jobs (0 = GOMAXPROCS)")
	cmd.Flags().String("constraint", "", "constraint as file:line1:col1:line2:col2")
	cmd.Flags().Bool("no-verify-returns", false, "accept return lines whose name differs from the open call")
}

func resolveSettings(cmd *cobra.Command) (settings, error) {
	cfg := defaultFileConfig()
	s := settings{
		TruncCount:    cfg.Replay.TruncCount,
		VerifyReturns: cfg.Replay.VerifyReturns,
		Cache:         cfg.Scan.Cache,
	}

	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return settings{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		found, ok, err := findConfig(wd)
		if err != nil {
			return settings{}, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		if s, err = loadConfig(path); err != nil {
			return settings{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("trunc-count") {
		if s.TruncCount, err = flags.GetInt("trunc-count"); err != nil {
			return settings{}, fmt.Errorf("failed to get trunc-count flag: %w", err)
		}
		if s.TruncCount < 0 {
			return settings{}, fmt.Errorf("--trunc-count must be >= 0")
		}
	}
	if flags.Changed("jobs") {
		if s.Jobs, err = flags.GetInt("jobs"); err != nil {
			return settings{}, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if flags.Changed("constraint") {
		raw, err := flags.GetString("constraint")
		if err != nil {
			return settings{}, fmt.Errorf("failed to get constraint flag: %w", err)
		}
		c, err := srcloc.ParseConstraint(raw)
		if err != nil {
			return settings{}, fmt.Errorf("invalid --constraint: %w", err)
		}
		s.Constraint = &c
	}
	if flags.Changed("no-verify-returns") {
		off, err := flags.GetBool("no-verify-returns")
		if err != nil {
			return settings{}, fmt.Errorf("failed to get no-verify-returns flag: %w", err)
		}
		s.VerifyReturns = !off
	}
	if flags.Lookup("no-cache") != nil && flags.Changed("no-cache") {
		off, err := flags.GetBool("no-cache")
		if err != nil {
			return settings{}, fmt.Errorf("failed to get no-cache flag: %w", err)
		}
		s.Cache = !off
	}
	return s, nil
}

func (s settings) forestOptions() exectree.ForestOptions {
	return exectree.ForestOptions{
		Replay: exectree.Options{
			Constraint:    s.Constraint,
			TruncCount:    s.TruncCount,
			VerifyReturns: s.VerifyReturns,
		},
		Jobs: s.Jobs,
	}
}
