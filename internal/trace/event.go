package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Scope is the granularity of an event. Coarser scopes have lower values
// and line up with the levels that first show them.
type Scope uint8

const (
	// ScopeDriver covers CLI-level work: loading the program, applying fixes.
	ScopeDriver Scope = iota + 1
	// ScopeFile covers the check of one source file.
	ScopeFile
	// ScopePass covers one pass over a file (diagnostics, types, point-at).
	ScopePass
	// ScopeNode covers single assertions.
	ScopeNode
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopeFile: "file", ScopePass: "pass", ScopeNode: "node"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Attr is one key/value pair attached to an event, kept in insertion order.
type Attr struct {
	Key   string
	Value string
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // process-wide, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for top-level spans
	Name     string // "load", "check", "types", ...
	File     string // source file the event is about, if any
	Detail   string
	Attrs    []Attr
}
