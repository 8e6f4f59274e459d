package expect

import (
	"strings"

	"typedsql/internal/diag"
	"typedsql/internal/source"
)

// Kind tags a reported failure.
type Kind uint8

const (
	CompileError Kind = iota
	FileNotIncluded
	TypesDoNotMatch
	OrphanAssertion
	MultipleAssertions
	ExpectedErrorNotFound
	SnapshotNotFound
	SnapshotMismatch
	SyntaxError
)

var kindInfo = [...]struct {
	id       string
	code     diag.Code
	template string
}{
	CompileError:          {"CompileError", diag.ChkCompileError, "Compile error: {{ message }}"},
	FileNotIncluded:       {"FileIsNotIncluded", diag.ChkFileNotIncluded, `Expected to find a file "{{ fileName }}" present.`},
	TypesDoNotMatch:       {"TypesDoNotMatch", diag.ExpTypesDoNotMatch, "Expected type to be: {{ expected }}, got: {{ actual }}"},
	OrphanAssertion:       {"OrphanAssertion", diag.ExpOrphanAssertion, "Can not match a node to this assertion."},
	MultipleAssertions:    {"Multiple$ExpectTypeAssertions", diag.ExpMultipleAssertions, "This line has 2 or more $ExpectType assertions."},
	ExpectedErrorNotFound: {"ExpectedErrorNotFound", diag.ExpErrorNotFound, "Expected an error on this line, but found none."},
	SnapshotNotFound:      {"TypeSnapshotNotFound", diag.ExpSnapshotNotFound, "Type Snapshot not found. Please consider running expecttype in FIX mode: expecttype check --fix"},
	SnapshotMismatch:      {"TypeSnapshotDoNotMatch", diag.ExpSnapshotMismatch, "Expected type from Snapshot to be: {{ expected }}, got: {{ actual }}"},
	SyntaxError:           {"SyntaxError", diag.ExpSyntaxError, "Syntax Error: {{ message }}"},
}

// String returns the message identifier of k.
func (k Kind) String() string {
	if int(k) < len(kindInfo) {
		return kindInfo[k].id
	}
	return "Unknown"
}

// Code maps k onto the diagnostic code space.
func (k Kind) Code() diag.Code {
	if int(k) < len(kindInfo) {
		return kindInfo[k].code
	}
	return diag.UnknownCode
}

// Failure is one reportable problem in a checked file.
type Failure struct {
	Kind Kind
	Span source.Span
	// Line is 1-based, Column 0-based.
	Line, Column       int
	EndLine, EndColumn int
	HasEnd             bool
	Data               map[string]string
	// Fix is the repair action, if any. Building it never has side
	// effects; see the fix package for materialisation.
	Fix *diag.Fix
}

// Message renders the message template of the failure kind with Data.
func (f Failure) Message() string {
	if int(f.Kind) >= len(kindInfo) {
		return ""
	}
	pairs := make([]string, 0, 2*len(f.Data))
	for k, v := range f.Data {
		pairs = append(pairs, "{{ "+k+" }}", v)
	}
	return strings.NewReplacer(pairs...).Replace(kindInfo[f.Kind].template)
}

// Diagnostic converts the failure for the formatting and fix stack.
func (f Failure) Diagnostic() *diag.Diagnostic {
	d := diag.NewError(f.Kind.Code(), f.Span, f.Message())
	if f.Fix != nil {
		d = d.WithFixSuggestion(*f.Fix)
	}
	return &d
}

// Diagnostics converts every failure.
func Diagnostics(failures []Failure) []*diag.Diagnostic {
	out := make([]*diag.Diagnostic, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Diagnostic())
	}
	return out
}
