package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, true},
		{LevelError, ScopeFile, false},
		{LevelPhase, ScopeFile, true},
		{LevelPhase, ScopePass, false},
		{LevelDetail, ScopePass, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s): want %v, got %v", tt.level, tt.scope, tt.want, got)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
	if _, err := ParseMode(""); err == nil {
		t.Fatal("expected error for empty mode")
	}
}

func TestStreamSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)

	ctx, file := Start(ctx, ScopeFile, "expect")
	pctx, pass := Start(ctx, ScopePass, "types")
	Mark(pctx, ScopeNode, "assertion", "line 3")
	pass.SetInt("bound", 2).Set("orphans", "0").End("")
	file.ForFile("a.go").End("")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"→ file expect", "  → pass types", "← pass types {bound=2, orphans=0}", "← file expect a.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "assertion") {
		t.Errorf("node events must be filtered at detail level:\n%s", out)
	}
}

func TestFilteredSpanIsNil(t *testing.T) {
	tr := NewRing(8, LevelError)
	ctx := WithTracer(context.Background(), tr)
	nested, span := Start(ctx, ScopeFile, "expect")
	if span != nil || nested != ctx {
		t.Fatal("a filtered scope must not start a span")
	}
	if d := span.Set("k", "v").End(""); d != 0 {
		t.Fatalf("nil span reported duration %v", d)
	}
	if n := len(tr.Events()); n != 0 {
		t.Fatalf("ring recorded %d events", n)
	}
}

func TestRingKeepsLastEvents(t *testing.T) {
	r := NewRing(2, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	for _, name := range []string{"a", "b", "c"} {
		Mark(ctx, ScopeNode, name, "")
	}
	var names []string
	for _, ev := range r.Events() {
		names = append(names, ev.Name)
	}
	if diff := cmp.Diff([]string{"b", "c"}, names); diff != "" {
		t.Fatalf("ring content (-want +got):\n%s", diff)
	}

	both, err := New(Config{Level: LevelDebug, Mode: ModeBoth, Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if rings := Rings(both); len(rings) != 1 {
		t.Fatalf("Rings found %d ring tracers, want 1", len(rings))
	}
}

func TestNDJSONCarriesFileAndAttrs(t *testing.T) {
	ev := &Event{Kind: KindSpanEnd, Scope: ScopeFile, Name: "expect", File: "a.go",
		Attrs: []Attr{{Key: "failures", Value: "1"}}}
	got := string(FormatEvent(ev, FormatNDJSON))
	for _, want := range []string{`"file":"a.go"`, `"attrs":{"failures":"1"}`, `"kind":"end"`} {
		if !strings.Contains(got, want) {
			t.Errorf("json missing %s: %s", want, got)
		}
	}
}

func TestNopFromEmptyContext(t *testing.T) {
	if FromContext(context.Background()).Level() != LevelOff {
		t.Fatal("empty context must yield a disabled tracer")
	}
	if tr, _ := New(Config{Level: LevelOff}); tr != Nop {
		t.Fatal("LevelOff must yield Nop")
	}
}
