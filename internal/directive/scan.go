package directive

import (
	"bytes"
	"regexp"
)

// Kind identifies a directive family.
type Kind uint8

const (
	KindExpectError Kind = iota
	KindExpectType
	KindExpectTypeSnapshot
	KindPointAt
)

func (k Kind) String() string {
	switch k {
	case KindExpectError:
		return "$ExpectError"
	case KindExpectType:
		return "$ExpectType"
	case KindExpectTypeSnapshot:
		return "$ExpectTypeSnapshot"
	case KindPointAt:
		return "^?"
	}
	return "unknown"
}

var (
	commentRx = regexp.MustCompile(`//(.*)`)
	// The content of a line comment must be nothing but the directive, so a
	// directive inside a commented-out line (`// f() // $ExpectType int`) is
	// never recognised.
	directiveRx = regexp.MustCompile(`^([ \t]*)(?:(\$Expect(?:TypeSnapshot|Type|Error))|(\^\?))(?: (.*))?$`)
	// quickRx is the cheap pre-check used to route files without
	// directives to plain diagnostic reporting.
	quickRx = regexp.MustCompile(`\$Expect(?:Type|Error)|\^\?`)
)

// Occurrence is one recognised directive comment.
type Occurrence struct {
	Kind Kind
	// Offset is the byte offset of the "//" that starts the comment.
	Offset int
	// Line is the 0-based physical line holding the comment.
	Line int
	// Target is the 0-based line the directive applies to.
	Target int
	// Indent is the whitespace between "//" and the directive keyword.
	Indent string
	Payload    string
	HasPayload bool
}

// HasDirectives reports whether text mentions any directive at all.
func HasDirectives(text []byte) bool {
	return quickRx.Match(text)
}

// Scan finds every directive comment of text in document order. lineStarts
// holds the offset of the first byte of each line.
func Scan(text []byte, lineStarts []uint32) []Occurrence {
	if len(lineStarts) == 0 {
		lineStarts = []uint32{0}
	}
	var out []Occurrence
	line := 0
	for _, m := range commentRx.FindAllSubmatchIndex(text, -1) {
		content := bytes.TrimSuffix(text[m[2]:m[3]], []byte{'\r'})
		dm := directiveRx.FindSubmatchIndex(content)
		if dm == nil {
			continue
		}
		offset := m[0]
		for line+1 < len(lineStarts) && int(lineStarts[line+1]) <= offset {
			line++
		}
		occ := Occurrence{
			Offset: offset,
			Line:   line,
			Target: line,
			Indent: string(content[dm[2]:dm[3]]),
		}
		if isFirstOnLine(text, int(lineStarts[line]), offset) {
			occ.Target = line + 1
		}
		switch {
		case dm[6] >= 0:
			occ.Kind = KindPointAt
		default:
			switch string(content[dm[4]:dm[5]]) {
			case "$ExpectTypeSnapshot":
				occ.Kind = KindExpectTypeSnapshot
			case "$ExpectType":
				occ.Kind = KindExpectType
			default:
				occ.Kind = KindExpectError
			}
		}
		if dm[8] >= 0 {
			occ.Payload = string(content[dm[8]:dm[9]])
			occ.HasPayload = true
		}
		out = append(out, occ)
	}
	return out
}

// isFirstOnLine reports whether only spaces and tabs precede pos on the
// line starting at lineStart.
func isFirstOnLine(text []byte, lineStart, pos int) bool {
	for i := lineStart; i < pos; i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return false
		}
	}
	return true
}
