package directive

import (
	"sort"
	"strings"
)

// TypeAssertion is an $ExpectType or $ExpectTypeSnapshot bound to a line.
type TypeAssertion struct {
	Line         int // 0-based target line
	Kind         Kind
	Expected     string
	SnapshotName string
}

// PointAt is a `^?` query. It targets the byte at Position on the line
// above the comment and expects the hover text there to be Expected.
type PointAt struct {
	// Line is where an unattachable query is reported.
	Line     int
	Position int
	Expected string
	// ExpectedRange is the [start, end) byte range holding the expected
	// text, including continuation lines. A repair replaces it.
	ExpectedRange [2]int
	// Prefix starts every continuation line.
	Prefix      string
	InsertSpace bool
	// Unattached is set when the query has no line above it or its column
	// lies past the end of that line.
	Unattached bool
}

// SyntaxError is a directive missing its required payload.
type SyntaxError struct {
	Line int
	Kind Kind
}

func (e SyntaxError) Message() string {
	if e.Kind == KindExpectTypeSnapshot {
		return `$ExpectTypeSnapshot requires snapshot name argument (e.g. // $ExpectTypeSnapshot MainComponentAPI)`
	}
	return `$ExpectType requires type argument (e.g. // $ExpectType "string")`
}

// Set holds every assertion of one file. Lines are 0-based.
type Set struct {
	// ErrorLines lists lines expecting a diagnostic, in first-seen order.
	ErrorLines []int
	// Types binds at most one type or snapshot assertion to each line.
	Types        map[int]*TypeAssertion
	Duplicates   []int
	SyntaxErrors []SyntaxError
	PointAts     []PointAt

	errorLines map[int]struct{}
}

// ExpectsError reports whether line carries an $ExpectError.
func (s *Set) ExpectsError(line int) bool {
	_, ok := s.errorLines[line]
	return ok
}

// TypeLines returns the lines of Types in ascending order.
func (s *Set) TypeLines() []int {
	lines := make([]int, 0, len(s.Types))
	for l := range s.Types {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// Empty reports whether the file holds no assertion at all.
func (s *Set) Empty() bool {
	return len(s.ErrorLines) == 0 && len(s.Types) == 0 && len(s.Duplicates) == 0 &&
		len(s.SyntaxErrors) == 0 && len(s.PointAts) == 0
}

// Parse collects the assertions of text.
func Parse(text []byte, lineStarts []uint32) *Set {
	if len(lineStarts) == 0 {
		lineStarts = []uint32{0}
	}
	set := &Set{
		Types:      make(map[int]*TypeAssertion),
		errorLines: make(map[int]struct{}),
	}
	for _, occ := range Scan(text, lineStarts) {
		switch occ.Kind {
		case KindExpectError:
			if set.ExpectsError(occ.Target) {
				set.Duplicates = append(set.Duplicates, occ.Target)
				continue
			}
			set.errorLines[occ.Target] = struct{}{}
			set.ErrorLines = append(set.ErrorLines, occ.Target)
		case KindExpectType, KindExpectTypeSnapshot:
			if occ.Payload == "" {
				set.SyntaxErrors = append(set.SyntaxErrors, SyntaxError{Line: occ.Target, Kind: occ.Kind})
				continue
			}
			set.bindType(occ)
		case KindPointAt:
			set.PointAts = append(set.PointAts, pointAt(text, lineStarts, occ))
		}
	}
	return set
}

// bindType applies the one-assertion-per-line rule: a second assertion on a
// line removes the first and marks the line as duplicated.
func (s *Set) bindType(occ Occurrence) {
	if _, dup := s.Types[occ.Target]; dup {
		delete(s.Types, occ.Target)
		s.Duplicates = append(s.Duplicates, occ.Target)
		return
	}
	ta := &TypeAssertion{Line: occ.Target, Kind: occ.Kind}
	if occ.Kind == KindExpectTypeSnapshot {
		ta.SnapshotName = occ.Payload
	} else {
		ta.Expected = occ.Payload
	}
	s.Types[occ.Target] = ta
}

func pointAt(text []byte, lineStarts []uint32, occ Occurrence) PointAt {
	if occ.Line == 0 {
		return PointAt{Line: 0, Position: -1, Expected: occ.Payload, ExpectedRange: [2]int{-1, -1}, Unattached: true}
	}

	lineStart := int(lineStarts[occ.Line])
	// "//" + indent puts the caret right after the comment marker.
	caret := occ.Offset + 2 + len(occ.Indent)
	prev := occ.Line - 1
	pa := PointAt{
		Line:     prev,
		Position: int(lineStarts[prev]) + caret - lineStart,
		Expected: occ.Payload,
	}
	if pa.Position > lineEnd(text, lineStarts, prev) {
		pa.Position = -1
		pa.Unattached = true
	}

	eol := lineEnd(text, lineStarts, occ.Line)
	// "^? " is three bytes.
	pa.ExpectedRange = [2]int{caret + 3, eol}
	pa.Prefix = string(text[lineStart:caret]) + "   "

	for next := occ.Line + 1; next < len(lineStarts); next++ {
		start, end := int(lineStarts[next]), lineEnd(text, lineStarts, next)
		lineText := string(text[start:end])
		if !strings.HasPrefix(lineText, pa.Prefix) {
			break
		}
		pa.Expected += "\n" + lineText[len(pa.Prefix):]
		pa.ExpectedRange[1] = end
	}

	if pa.ExpectedRange[0] > eol {
		// Nothing follows the marker on its own line.
		pa.ExpectedRange[0] = eol
		pa.InsertSpace = true
	}
	return pa
}

// lineEnd returns the offset just past the last byte of line, excluding
// the line terminator.
func lineEnd(text []byte, lineStarts []uint32, line int) int {
	end := len(text)
	if line+1 < len(lineStarts) {
		end = int(lineStarts[line+1]) - 1
	}
	if end > int(lineStarts[line]) && text[end-1] == '\r' {
		end--
	}
	return end
}
