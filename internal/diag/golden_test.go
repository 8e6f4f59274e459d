package diag

import (
	"testing"

	"typedsql/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")

	userFile := fs.Add("/workspace/testdata/sample.go", []byte("a\nb\n"), 0)

	diags := []*Diagnostic{
		{
			Severity: SevWarning,
			Code:     ExpOrphanAssertion,
			Message:  "another",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     ExpTypesDoNotMatch,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "note line"},
			},
		},
	}

	expected := "error EXP2001 testdata/sample.go:1:1 first line second\n" +
		"note EXP2001 testdata/sample.go:2:1 note line\n" +
		"warning EXP2002 testdata/sample.go:2:1 another"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortDiagnosticsEmpty(t *testing.T) {
	if got := FormatShortDiagnostics(nil, source.NewFileSet(), false); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
