package trace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format is the encoding of trace output.
type Format uint8

const (
	FormatAuto   Format = iota // by output path
	FormatText                 // one human-readable line per event
	FormatNDJSON               // one JSON object per line
)

// ParseFormat converts a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

func formatForPath(path string) Format {
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

// FormatEvent renders ev as one line, newline included.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return eventJSON(ev)
	}
	return eventText(ev)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	File     string            `json:"file,omitempty"`
	Detail   string            `json:"detail,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

func eventJSON(ev *Event) []byte {
	j := jsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		Name:     ev.Name,
		File:     ev.File,
		Detail:   ev.Detail,
	}
	if len(ev.Attrs) > 0 {
		j.Attrs = make(map[string]string, len(ev.Attrs))
		for _, a := range ev.Attrs {
			j.Attrs[a.Key] = a.Value
		}
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

// eventText renders `time [indent]→|←|• scope name [file] (detail) {k=v, ...}`.
// Attributes keep the order they were set in.
func eventText(ev *Event) []byte {
	var sb strings.Builder
	sb.WriteString(ev.Time.Format("15:04:05.000000"))
	sb.WriteByte(' ')
	// nested events are indented one step, enough to tell file work apart
	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}
	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ")
	case KindSpanEnd:
		sb.WriteString("← ")
	case KindPoint:
		sb.WriteString("• ")
	}
	sb.WriteString(ev.Scope.String())
	sb.WriteByte(' ')
	sb.WriteString(ev.Name)
	if ev.File != "" {
		sb.WriteByte(' ')
		sb.WriteString(ev.File)
	}
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", ev.Detail)
	}
	if len(ev.Attrs) > 0 {
		sb.WriteString(" {")
		for i, a := range ev.Attrs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.Key)
			sb.WriteByte('=')
			sb.WriteString(a.Value)
		}
		sb.WriteByte('}')
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
