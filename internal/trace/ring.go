package trace

import (
	"io"
	"slices"
	"sync"
)

// Ring keeps the most recent events in memory.
type Ring struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	count int
	level Level
}

// NewRing returns a ring holding up to size events.
func NewRing(size int, level Level) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{buf: make([]Event, size), level: level}
}

func (r *Ring) Emit(ev *Event) {
	if !r.level.ShouldEmit(ev.Scope) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = *ev
	r.next = (r.next + 1) % len(r.buf)
	r.count = min(r.count+1, len(r.buf))
}

func (r *Ring) Level() Level { return r.level }

func (r *Ring) Close() error { return nil }

// Events returns the stored events, oldest first.
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count < len(r.buf) {
		return slices.Clone(r.buf[:r.count])
	}
	return slices.Concat(r.buf[r.next:], r.buf[:r.next])
}

// Dump writes the stored events to w.
func (r *Ring) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Events() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}
