package directive

import (
	"sync"
	"testing"
)

func TestRegistryCollectFromFile(t *testing.T) {
	r := NewRegistry()
	text := "a() // $ExpectError\nb() // $ExpectType int\n// ^? int\n"
	if n := r.CollectFromFile("b.go", []byte(text), lineStarts(text)); n != 3 {
		t.Fatalf("expected 3 directives, got %d", n)
	}
	r.CollectFromFile("a.go", []byte("x // $ExpectType int\n"), []uint32{0})

	all := r.All()
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}
	if all[0].Path != "a.go" || all[1].Kind != KindExpectError || all[3].Kind != KindPointAt {
		t.Fatalf("entries are not ordered by path and offset: %+v", all)
	}
}

func TestRegistryFilterByKind(t *testing.T) {
	r := NewRegistry()
	r.Add(Entry{Path: "a.go", Occurrence: Occurrence{Kind: KindExpectType, Offset: 10}})
	r.Add(Entry{Path: "a.go", Occurrence: Occurrence{Kind: KindExpectType, Offset: 1}})
	r.Add(Entry{Path: "a.go", Occurrence: Occurrence{Kind: KindPointAt}})
	r.Add(Entry{Path: "b.go", Occurrence: Occurrence{Kind: KindExpectError}})

	types := r.FilterByKind([]Kind{KindExpectType})
	if len(types) != 2 || types[0].Offset != 1 {
		t.Fatalf("unexpected filter result %+v", types)
	}
	if got := len(r.FilterByKind([]Kind{KindExpectType, KindExpectError})); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
	if got := len(r.FilterByKind(nil)); got != 4 {
		t.Fatalf("empty filter should return everything, got %d", got)
	}
}

func TestRegistryConcurrentAdd(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Add(Entry{Path: "a.go", Occurrence: Occurrence{Offset: i}})
		}(i)
	}
	wg.Wait()
	if got := len(r.All()); got != 50 {
		t.Fatalf("expected 50 entries, got %d", got)
	}
}
