// Package watch re-runs a function when Go sources or snapshot files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"typedsql/internal/snapshot"
	"typedsql/internal/trace"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Options configures Run.
type Options struct {
	// Dirs are watched non-recursively.
	Dirs     []string
	Debounce time.Duration
	// OnChange runs after each quiet period following a relevant event.
	// Returning an error stops Run.
	OnChange func(ctx context.Context, changed []string) error
}

// Relevant reports whether a change to path can affect a check result.
func Relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return strings.HasSuffix(base, ".go") || strings.HasSuffix(base, snapshot.Suffix)
}

// Dirs returns the directories of files plus their snapshot directories,
// deduplicated and sorted.
func Dirs(files []string) []string {
	var out []string
	for _, f := range files {
		dir := filepath.Dir(f)
		out = append(out, dir, filepath.Join(dir, snapshot.Dir))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Run blocks until ctx is done or OnChange fails. Directories that do not
// exist yet are skipped.
func Run(ctx context.Context, opts Options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	watched := 0
	for _, dir := range opts.Dirs {
		if err := w.Add(dir); err != nil {
			trace.Mark(ctx, trace.ScopeDriver, "watch.skip", dir+": "+err.Error())
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("watch: none of %d directories could be watched", len(opts.Dirs))
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !Relevant(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			trace.Mark(ctx, trace.ScopeDriver, "watch.error", err.Error())
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			slices.Sort(changed)
			if err := opts.OnChange(ctx, changed); err != nil {
				return err
			}
		}
	}
}
