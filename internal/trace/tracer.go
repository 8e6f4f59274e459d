package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives trace events. Implementations must be safe for
// concurrent use: files are checked in parallel.
type Tracer interface {
	Emit(ev *Event)
	Level() Level
	// Close flushes buffered output and releases the destination.
	Close() error
}

type nopTracer struct{}

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Level() Level { return LevelOff }
func (nopTracer) Close() error { return nil }

// Nop discards everything.
var Nop Tracer = nopTracer{}

// StorageMode selects where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they happen
	ModeRing                          // last N kept in memory
	ModeBoth
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m StorageMode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a case-insensitive mode name.
func ParseMode(s string) (StorageMode, error) {
	for i, name := range modeNames {
		if name != "" && strings.EqualFold(s, name) {
			return StorageMode(i), nil
		}
	}
	return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// DefaultRingSize is used when Config.RingSize is not positive.
const DefaultRingSize = 4096

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format    // FormatAuto picks by OutputPath extension
	Output     io.Writer // takes precedence over OutputPath
	OutputPath string    // "" or "-" means stderr
	RingSize   int
}

// New builds the tracer described by cfg. LevelOff always yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = DefaultRingSize
	}
	format := cfg.Format
	if format == FormatAuto {
		format = formatForPath(cfg.OutputPath)
	}

	switch cfg.Mode {
	case ModeRing:
		return NewRing(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth, 0:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream := NewStream(w, cfg.Level, format)
		if cfg.Mode != ModeBoth {
			return stream, nil
		}
		return &fanout{level: cfg.Level, tracers: []Tracer{stream, NewRing(cfg.RingSize, cfg.Level)}}, nil
	}
	return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		// stderr must outlive the tracer
		return struct{ io.Writer }{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// fanout sends each event to several tracers.
type fanout struct {
	level   Level
	tracers []Tracer
}

func (f *fanout) Emit(ev *Event) {
	for _, t := range f.tracers {
		t.Emit(ev)
	}
}

func (f *fanout) Level() Level { return f.level }

func (f *fanout) Close() error {
	var errs []error
	for _, t := range f.tracers {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

// Rings returns the ring buffers behind t, for dumping after a failure.
func Rings(t Tracer) []*Ring {
	switch tt := t.(type) {
	case *Ring:
		return []*Ring{tt}
	case *fanout:
		var out []*Ring
		for _, inner := range tt.tracers {
			out = append(out, Rings(inner)...)
		}
		return out
	}
	return nil
}
