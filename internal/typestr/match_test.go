package typestr

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		name             string
		actual, expected string
		want             bool
	}{
		{"exact", "[]string", "[]string", true},
		{"different", "int", "string", false},
		{"readonly array", "readonly string[]", "ReadonlyArray<string>", true},
		{"nested", "A<readonly B<readonly C[]>[]>", "A<ReadonlyArray<B<ReadonlyArray<C>>>>", true},
		{"doubly nested", "readonly (readonly number[])[]", "ReadonlyArray<(ReadonlyArray<number>)>", true},
		{"readonly inside object", "{ xs: readonly string[]; }", "{ xs: ReadonlyArray<string>; }", true},
		{"element differs", "readonly string[]", "ReadonlyArray<number>", false},
		{"mutable array", "string[]", "ReadonlyArray<string>", false},
		{"trailing text in actual", "readonly string[] | undefined", "ReadonlyArray<string>", false},
		{"trailing text in expected", "readonly string[]", "ReadonlyArray<string> | null", false},
		{"unclosed", "readonly string", "ReadonlyArray<string", false},
		{"no readonly keyword", "Readonly<string[]>", "ReadonlyArray<string>", false},
		{"readonly property, not array", "{ readonly a: string; }", "{ ReadonlyArray<a: string; }", false},
		{"word boundary", "xreadonly string[]", "xReadonlyArray<string>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.actual, tt.expected); got != tt.want {
				t.Fatalf("Match(%q, %q): want %v, got %v", tt.actual, tt.expected, tt.want, got)
			}
		})
	}
}

func TestMatchReadonlyArrayRequiresBothSpellings(t *testing.T) {
	if MatchReadonlyArray("readonly string[]", "readonly string[]") {
		t.Fatal("structural walk must only run for ReadonlyArray in expected")
	}
}

func TestMatchModuloWhitespace(t *testing.T) {
	tests := []struct {
		actual, expected string
		want             bool
	}{
		{"func f() int", "func f() int", true},
		{"struct{\n\tA int\n}", "struct{\n\tA int\n}", true},
		{"func f(a int,\n   b int) int", " func f(a int, b int) int\n", true},
		{"var x int", "var x  string", false},
		{"var  x", "varx", false},
	}
	for _, tt := range tests {
		if got := MatchModuloWhitespace(tt.actual, tt.expected); got != tt.want {
			t.Errorf("MatchModuloWhitespace(%q, %q): want %v, got %v", tt.actual, tt.expected, tt.want, got)
		}
	}
}
