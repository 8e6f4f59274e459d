package expect

import (
	"fmt"
	"strings"
	"sync"

	"typedsql/internal/diag"
	"typedsql/internal/fix"
	"typedsql/internal/snapshot"
	"typedsql/internal/source"
)

// snapshotRepair rewrites one snapshot entry when materialised. The source
// text is left alone: the produced edit is an empty insertion.
type snapshotRepair struct {
	store    *snapshot.Store
	path     string
	name     string
	actual   string
	at       source.Span
	disabled bool

	mu      sync.Mutex
	applied bool
}

// Build performs the sidecar write on the first call only.
func (r *snapshotRepair) Build(diag.FixBuildContext) (diag.Fix, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.applied {
		r.applied = true
		if !r.disabled {
			if err := r.store.Update(r.path, r.name, r.actual); err != nil {
				return diag.Fix{}, err
			}
		}
	}
	return diag.Fix{Edits: []diag.TextEdit{{Span: r.at}}}, nil
}

// snapshotFix is a source action: it rewrites the sidecar, not the file.
// With writes disabled the repair cannot change anything, so --fix leaves it
// for manual review.
func snapshotFix(store *snapshot.Store, path, name, actual string, at source.Span, disabled bool) *diag.Fix {
	opts := []fix.Option{
		fix.WithID(fmt.Sprintf("%s:%d:snapshot:%s", path, at.Start, name)),
		fix.WithKind(diag.FixKindSourceAction),
	}
	if disabled {
		opts = append(opts, fix.WithApplicability(diag.FixApplicabilityManualReview))
	}
	f := fix.Lazy(
		fmt.Sprintf("Update snapshot %q", name),
		&snapshotRepair{store: store, path: path, name: name, actual: actual, at: at, disabled: disabled},
		opts...,
	)
	return &f
}

// pointAtFix replaces the expected text of a `^?` query with actual.
// Continuation lines of a multi-line actual are re-prefixed so that they
// are read back as part of the same query.
func pointAtFix(path string, file *source.File, rng [2]int, prefix string, insertSpace bool, actual string) *diag.Fix {
	span := source.Span{File: file.ID, Start: clampOffset(file, rng[0]), End: clampOffset(file, rng[1])}
	text := strings.Join(strings.Split(actual, "\n"), "\n"+prefix)
	if insertSpace {
		text = " " + text
	}
	f := fix.ReplaceSpan(
		"Update ^? expectation",
		span,
		text,
		string(file.Content[span.Start:span.End]),
		fix.WithID(fmt.Sprintf("%s:%d:point-at", path, span.Start)),
		fix.Preferred(),
	)
	return &f
}
