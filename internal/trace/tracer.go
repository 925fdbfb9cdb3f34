package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Tracer receives trace events. Implementations must be goroutine-safe:
// forest builds emit from one goroutine per thread file.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// StorageMode determines how events are stored.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // immediate write
	ModeRing                          // circular buffer
	ModeBoth                          // stream + ring
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a flag value to StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format    // FormatAuto picks from OutputPath
	Output     io.Writer // stream sink; nil means OutputPath
	OutputPath string    // "-" or empty for stderr
	RingSize   int       // <= 0 means DefaultRingSize
	// Threads limits thread and line events to these trace file labels
	// ("4242_main"). Empty keeps every thread.
	Threads []string
}

// New creates a Tracer based on Config.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	var (
		stream *StreamTracer
		ring   *RingTracer
	)
	if cfg.Mode == ModeStream || cfg.Mode == ModeBoth {
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream = NewStreamTracer(w, cfg.Level, outputFormat(cfg))
	}
	if cfg.Mode == ModeRing || cfg.Mode == ModeBoth {
		ring = NewRingTracer(cfg.RingSize, cfg.Level)
	}

	var t Tracer
	switch {
	case stream != nil && ring != nil:
		t = NewMultiTracer(cfg.Level, stream, ring)
	case stream != nil:
		t = stream
	case ring != nil:
		t = ring
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
	return FilterThreads(t, cfg.Threads), nil
}

// outputFormat resolves FormatAuto: .ndjson and .jsonl files get NDJSON.
func outputFormat(cfg Config) Format {
	if cfg.Format != FormatAuto {
		return cfg.Format
	}
	switch strings.ToLower(filepath.Ext(cfg.OutputPath)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	}
	return FormatText
}

// RingOf finds the ring storage behind t, nil when there is none.
func RingOf(t Tracer) *RingTracer {
	for {
		switch v := t.(type) {
		case *RingTracer:
			return v
		case *MultiTracer:
			return v.Ring()
		case interface{ Unwrap() Tracer }:
			t = v.Unwrap()
		default:
			return nil
		}
	}
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// nopCloser keeps Close from closing stderr.
type nopCloser struct{ io.Writer }
