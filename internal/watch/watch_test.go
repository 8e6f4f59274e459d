package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"p/a.go", true},
		{"p/__type-snapshots__/a.go.snap.json", true},
		{"p/.a.go.swp", false},
		{"p/a.go~", false},
		{"p/notes.txt", false},
	}
	for _, tt := range tests {
		if got := Relevant(tt.path); got != tt.want {
			t.Errorf("Relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDirs(t *testing.T) {
	got := Dirs([]string{"p/a.go", "p/b.go", "q/c.go"})
	want := []string{"p", "p/__type-snapshots__", "q", "q/__type-snapshots__"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dirs mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCallsOnChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	calls := make(chan []string, 1)
	stop := errors.New("stop")
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			Dirs:     []string{dir, filepath.Join(dir, "missing")},
			Debounce: 50 * time.Millisecond,
			OnChange: func(_ context.Context, changed []string) error {
				calls <- changed
				return stop
			},
		})
	}()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "a.go")
	if err := os.WriteFile(path, []byte("package p\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-calls:
		if diff := cmp.Diff([]string{path}, changed); diff != "" {
			t.Errorf("changed mismatch (-want +got):\n%s", diff)
		}
	case <-ctx.Done():
		t.Fatal("OnChange was not called")
	}
	if err := <-done; !errors.Is(err, stop) {
		t.Fatalf("Run returned %v, want the OnChange error", err)
	}
}

func TestRunWithoutDirs(t *testing.T) {
	err := Run(context.Background(), Options{Dirs: []string{filepath.Join(t.TempDir(), "nope")}})
	if err == nil {
		t.Fatal("expected error when nothing can be watched")
	}
}
