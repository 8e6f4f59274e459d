package diag

import (
	"testing"

	"typedsql/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(2)
	if !b.Add(&Diagnostic{Severity: SevWarning, Code: ExpOrphanAssertion, Primary: source.Span{Start: 10}}) {
		t.Fatal("first Add should succeed")
	}
	if !b.Add(&Diagnostic{Severity: SevError, Code: ChkCompileError, Primary: source.Span{Start: 1}}) {
		t.Fatal("second Add should succeed")
	}
	if b.Add(&Diagnostic{Severity: SevError, Code: ChkCompileError}) {
		t.Fatal("Add beyond the limit must be rejected")
	}

	b.Sort()
	items := b.Items()
	if items[0].Code != ChkCompileError || items[1].Code != ExpOrphanAssertion {
		t.Fatalf("unexpected order: %v, %v", items[0].Code, items[1].Code)
	}
	if !b.HasErrors() {
		t.Fatal("expected HasErrors")
	}
}

func TestBagCountsDropped(t *testing.T) {
	b := NewBag(1)
	for range 3 {
		b.Add(&Diagnostic{Code: ExpOrphanAssertion})
	}
	if b.Len() != 1 || b.Dropped() != 2 {
		t.Fatalf("Len=%d Dropped=%d, want 1 and 2", b.Len(), b.Dropped())
	}

	unbounded := NewBag(0)
	for i := range 300 {
		if !unbounded.Add(&Diagnostic{Code: ExpOrphanAssertion}) {
			t.Fatalf("unbounded bag rejected item %d", i)
		}
	}
	if unbounded.Dropped() != 0 {
		t.Fatalf("unbounded bag dropped %d", unbounded.Dropped())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	span := source.Span{Start: 3, End: 4}
	r.Report(&Diagnostic{Code: ChkCompileError, Severity: SevError, Primary: span, Message: "undefined: foo"})
	r.Report(&Diagnostic{Code: ChkCompileError, Severity: SevError, Primary: span, Message: "undefined: foo"})
	r.Report(&Diagnostic{Code: ChkCompileError, Severity: SevError, Primary: span, Message: "undefined: bar"})
	r.Report(&Diagnostic{Code: ChkCompileError, Severity: SevWarning, Primary: span, Message: "undefined: bar"})
	if bag.Len() != 3 {
		t.Fatalf("expected 3 diagnostics after dedup, got %d", bag.Len())
	}
}

func TestFixResolveRunsThunk(t *testing.T) {
	calls := 0
	f := Fix{
		Title: "outer",
		Thunk: FixThunkFunc(func(FixBuildContext) (Fix, error) {
			calls++
			return Fix{Edits: []TextEdit{{NewText: "x"}}}, nil
		}),
	}
	resolved, err := f.Resolve(FixBuildContext{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if calls != 1 {
		t.Fatalf("thunk called %d times, want 1", calls)
	}
	if resolved.Title != "outer" || len(resolved.Edits) != 1 || resolved.Thunk != nil {
		t.Fatalf("unexpected resolved fix: %+v", resolved)
	}
}
