package directive

import (
	"bytes"
	"strings"
	"testing"
)

func TestListerEmpty(t *testing.T) {
	var buf bytes.Buffer
	res := NewLister(NewRegistry(), ListConfig{Output: &buf}).List()

	if res.Total != 0 || res.Malformed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(buf.String(), "Directive summary: 0 total") {
		t.Errorf("expected summary in output, got: %s", buf.String())
	}
}

func TestListerPrintsEntries(t *testing.T) {
	r := NewRegistry()
	text := "// $ExpectType int\nx := f()\ny := g() // $ExpectTypeSnapshot\n"
	r.CollectFromFile("/src/pkg/a.go", []byte(text), lineStarts(text))

	var buf bytes.Buffer
	res := NewLister(r, ListConfig{Output: &buf, BaseDir: "/src"}).List()

	out := buf.String()
	for _, want := range []string{
		"pkg/a.go:2: $ExpectType int\n",
		"pkg/a.go:3: $ExpectTypeSnapshot (missing argument)\n",
		"Directive summary: 2 total, 1 $ExpectType, 1 $ExpectTypeSnapshot, 0 $ExpectError, 0 ^?, 1 malformed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if res.ByKind[KindExpectType] != 1 || res.Malformed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestListerFilter(t *testing.T) {
	r := NewRegistry()
	text := "a() // $ExpectError\nb() // $ExpectType int\n"
	r.CollectFromFile("a.go", []byte(text), lineStarts(text))

	var buf bytes.Buffer
	res := NewLister(r, ListConfig{Output: &buf, Filter: []Kind{KindExpectError}}).List()
	if res.Total != 1 || strings.Contains(buf.String(), "$ExpectType int") {
		t.Fatalf("filter not applied: %s", buf.String())
	}
}
