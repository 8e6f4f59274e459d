package ui

import (
	"strings"
	"testing"

	"typedsql/internal/driver"
)

func feed(m *progressModel, events ...driver.Event) {
	for _, ev := range events {
		m.Update(eventMsg(ev))
	}
}

func TestProgressModelTracksFiles(t *testing.T) {
	m := NewProgressModel("expecttype", nil).(*progressModel)
	feed(m,
		driver.Event{Stage: driver.StageLoad, Status: driver.StatusWorking},
		driver.Event{File: "a.go", Stage: driver.StageCheck, Status: driver.StatusQueued},
		driver.Event{File: "b.go", Stage: driver.StageCheck, Status: driver.StatusQueued},
		driver.Event{Stage: driver.StageCheck, Status: driver.StatusWorking},
		driver.Event{File: "a.go", Stage: driver.StageCheck, Status: driver.StatusFailed, Failures: 2},
		driver.Event{File: "b.go", Stage: driver.StageCheck, Status: driver.StatusWorking},
	)

	view := m.View()
	for _, want := range []string{"(checking) 1/2, 1 failing", "2 failed", "a.go", "checking", "b.go"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "a.go") > strings.Index(view, "b.go") {
		t.Errorf("failing file should be listed first:\n%s", view)
	}

	m.Update(doneMsg{})
	if !strings.Contains(m.View(), "done: ") {
		t.Errorf("done header missing:\n%s", m.View())
	}
}

func TestProgressModelCapsRows(t *testing.T) {
	m := NewProgressModel("x", nil).(*progressModel)
	for i := range maxRows + 5 {
		feed(m, driver.Event{File: string(rune('a'+i)) + ".go", Status: driver.StatusDone})
	}
	if got := len(m.visible()); got != maxRows {
		t.Errorf("visible rows = %d, want %d", got, maxRows)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.go", 20, "short.go"},
		{"very/long/path/file.go", 10, "very/lo..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
