package observ

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("load")
	tm.End(idx, "3 packages")
	err := tm.Measure("apply fixes", func() error { return errors.New("boom") })
	if err == nil {
		t.Fatal("Measure must return the error of fn")
	}

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(rep.Phases))
	}
	if rep.Phases[0].Note != "3 packages" || rep.Phases[1].Note != "failed" {
		t.Fatalf("unexpected notes %+v", rep.Phases)
	}
	sum := tm.Summary()
	for _, want := range []string{"timings:", "load", "// 3 packages", "wall"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary missing %q:\n%s", want, sum)
		}
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("check"), "")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 20 {
		t.Fatalf("expected 20 phases, got %d", got)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if rep := tm.Report(); len(rep.Phases) != 0 {
		t.Fatal("nil timer must report nothing")
	}
}
