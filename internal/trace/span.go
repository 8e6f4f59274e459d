package trace

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
)

func nextSeq() uint64 { return seq.Add(1) }

// Span tracks one logical operation between Start and End. A nil *Span is
// valid and records nothing, which is what Start returns when the scope is
// filtered out.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	file    string
	started time.Time
	attrs   []Attr
}

// Start begins a span under the span carried by ctx and returns a context
// in which the new span is the parent of nested work.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	t := FromContext(ctx)
	if !t.Level().ShouldEmit(scope) {
		return ctx, nil
	}
	s := &Span{
		tracer:  t,
		id:      spanIDs.Add(1),
		parent:  parentID(ctx),
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Seq:      nextSeq(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     name,
	})
	return context.WithValue(ctx, spanKey{}, s.id), s
}

// ForFile tags the span's end event with the file it covers.
func (s *Span) ForFile(path string) *Span {
	if s != nil {
		s.file = path
	}
	return s
}

// Set adds an attribute to the end event.
func (s *Span) Set(key, value string) *Span {
	if s != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// SetInt is Set for counts.
func (s *Span) SetInt(key string, v int) *Span {
	return s.Set(key, strconv.Itoa(v))
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		File:     s.file,
		Detail:   detail,
		Attrs:    s.attrs,
	})
	return dur
}

// Mark emits an instant event under the span carried by ctx.
func Mark(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parentID(ctx),
		Name:     name,
		Detail:   detail,
	})
}
