package directive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lineStarts(text string) []uint32 {
	starts := []uint32{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

func parse(text string) *Set {
	return Parse([]byte(text), lineStarts(text))
}

func TestParseLineAttribution(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"trailing", "x := f() // $ExpectType int\n", 0},
		{"leading", "// $ExpectType int\nx := f()\n", 1},
		{"leading indented with tab", "\t// $ExpectType int\n\tx := f()\n", 1},
		{"leading indented with spaces", "    // $ExpectType int\n    x := f()\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := parse(tt.text)
			ta, ok := set.Types[tt.line]
			if !ok {
				t.Fatalf("no assertion on line %d: %+v", tt.line, set.Types)
			}
			if ta.Expected != "int" || ta.Kind != KindExpectType {
				t.Fatalf("unexpected assertion %+v", ta)
			}
		})
	}
}

func TestParseIgnoresNestedDirective(t *testing.T) {
	set := parse("// f() // $ExpectType int\nvar s = \"http://example.com\"\n")
	if !set.Empty() {
		t.Fatalf("expected no directives, got %+v", set)
	}
}

func TestParseRequiresExactKeyword(t *testing.T) {
	set := parse("x // $ExpectTypes int\ny // $ExpectErrorX\nz // comment $ExpectType int\n")
	if !set.Empty() {
		t.Fatalf("expected no directives, got %+v", set)
	}
}

func TestParseDuplicates(t *testing.T) {
	set := parse("// $ExpectType int\nx := f() // $ExpectType string\n")
	if len(set.Types) != 0 {
		t.Fatalf("duplicated line must not keep an assertion: %+v", set.Types)
	}
	if diff := cmp.Diff([]int{1}, set.Duplicates); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}

	set = parse("// $ExpectError\nf() // $ExpectError\n")
	if diff := cmp.Diff([]int{1}, set.ErrorLines); diff != "" {
		t.Fatalf("error lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, set.Duplicates); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSnapshotAndErrors(t *testing.T) {
	set := parse("a() // $ExpectError\nb() // $ExpectTypeSnapshot Main\nc() // $ExpectType\nd() // $ExpectTypeSnapshot \n")
	if !set.ExpectsError(0) || set.ExpectsError(1) {
		t.Fatalf("unexpected error lines %v", set.ErrorLines)
	}
	ta := set.Types[1]
	if ta == nil || ta.Kind != KindExpectTypeSnapshot || ta.SnapshotName != "Main" || ta.Expected != "" {
		t.Fatalf("unexpected snapshot assertion %+v", ta)
	}
	want := []SyntaxError{{Line: 2, Kind: KindExpectType}, {Line: 3, Kind: KindExpectTypeSnapshot}}
	if diff := cmp.Diff(want, set.SyntaxErrors); diff != "" {
		t.Fatalf("syntax errors mismatch (-want +got):\n%s", diff)
	}
	if got := set.SyntaxErrors[0].Message(); got != `$ExpectType requires type argument (e.g. // $ExpectType "string")` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestParseCRLF(t *testing.T) {
	set := parse("x := f() // $ExpectType int\r\ny := g()\r\n")
	if ta := set.Types[0]; ta == nil || ta.Expected != "int" {
		t.Fatalf("unexpected assertion %+v", ta)
	}
}

func TestParsePointAt(t *testing.T) {
	text := "x := strings.ToUpper(s)\n//   ^? func strings.ToUpper(s string) string\n"
	set := parse(text)
	if len(set.PointAts) != 1 {
		t.Fatalf("expected 1 point-at, got %d", len(set.PointAts))
	}
	pa := set.PointAts[0]
	// The caret sits at column 5, under the "s" of "strings".
	if pa.Position != 5 || pa.Unattached {
		t.Fatalf("unexpected position %+v", pa)
	}
	if pa.Expected != "func strings.ToUpper(s string) string" {
		t.Fatalf("unexpected expected text %q", pa.Expected)
	}
	lineStart := 24
	wantRange := [2]int{lineStart + 8, len(text) - 1}
	if pa.ExpectedRange != wantRange {
		t.Fatalf("range: want %v, got %v", wantRange, pa.ExpectedRange)
	}
	if pa.Prefix != "//      " || pa.InsertSpace {
		t.Fatalf("unexpected prefix %q insertSpace=%v", pa.Prefix, pa.InsertSpace)
	}
}

func TestParsePointAtContinuation(t *testing.T) {
	text := "v := T{}\n// ^? struct{\n//      A int\n//    }\n// other\n"
	pa := parse(text).PointAts[0]
	if pa.Expected != "struct{\n  A int\n}" {
		t.Fatalf("unexpected expected text %q", pa.Expected)
	}
	// The range ends with the "}" line.
	if got := text[pa.ExpectedRange[0]:pa.ExpectedRange[1]]; got != "struct{\n//      A int\n//    }" {
		t.Fatalf("unexpected range text %q", got)
	}
}

func TestParsePointAtPrefixMustBeIdentical(t *testing.T) {
	text := "\tv := T{}\n\t// ^? struct{\n    //    A int\n"
	pa := parse(text).PointAts[0]
	if pa.Expected != "struct{" {
		t.Fatalf("continuation with a different indent must not be consumed, got %q", pa.Expected)
	}
}

func TestParsePointAtEmptyPayload(t *testing.T) {
	text := "x := f()\n// ^?\n"
	pa := parse(text).PointAts[0]
	eol := len(text) - 1
	if !pa.InsertSpace || pa.ExpectedRange != [2]int{eol, eol} || pa.Expected != "" {
		t.Fatalf("unexpected point-at %+v", pa)
	}
}

func TestParsePointAtFirstLine(t *testing.T) {
	pa := parse("// ^? int\nx := 1\n").PointAts[0]
	if !pa.Unattached || pa.Position != -1 || pa.Line != 0 {
		t.Fatalf("first-line point-at must be unattached at line 0, got %+v", pa)
	}
}

func TestParsePointAtPastEndOfLine(t *testing.T) {
	pa := parse("x\n//       ^? int\n").PointAts[0]
	if !pa.Unattached || pa.Line != 0 {
		t.Fatalf("point-at beyond the line end must be unattached, got %+v", pa)
	}
}

func TestHasDirectives(t *testing.T) {
	for text, want := range map[string]bool{
		"x // $ExpectType int":  true,
		"x // $ExpectError":     true,
		"// ^?":                 true,
		"x // $ExpectTypeSnap":  true,
		"package main\nfunc(){}": false,
	} {
		if got := HasDirectives([]byte(text)); got != want {
			t.Errorf("HasDirectives(%q): want %v, got %v", text, want, got)
		}
	}
}
