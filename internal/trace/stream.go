package trace

import (
	"bufio"
	"io"
	"sync"
)

// Stream writes each event as soon as it is emitted.
type Stream struct {
	mu     sync.Mutex
	out    *bufio.Writer
	dst    io.Writer
	level  Level
	format Format
}

// NewStream returns a tracer writing to w.
func NewStream(w io.Writer, level Level, format Format) *Stream {
	return &Stream{out: bufio.NewWriter(w), dst: w, level: level, format: format}
}

func (s *Stream) Emit(ev *Event) {
	if !s.level.ShouldEmit(ev.Scope) {
		return
	}
	data := FormatEvent(ev, s.format)
	s.mu.Lock()
	defer s.mu.Unlock()
	// best effort: a broken trace sink must not fail the check
	_, _ = s.out.Write(data)
	if ev.Scope <= ScopeFile {
		_ = s.out.Flush()
	}
}

func (s *Stream) Level() Level { return s.level }

// Close flushes and closes the destination when it is an io.Closer.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.out.Flush(); err != nil {
		return err
	}
	if c, ok := s.dst.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
