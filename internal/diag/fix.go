package diag

import (
	"fmt"

	"typedsql/internal/source"
)

// FixKind classifies a fix for UI listings.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	case FixKindRefactorRewrite:
		return "refactor.rewrite"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability expresses how confident the producer is in a fix.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// TextEdit replaces Span with NewText. A non-empty OldText guards the edit:
// the fix engine refuses to apply it when the current text differs.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixBuildContext is handed to thunks when fixes are materialised.
type FixBuildContext struct {
	FileSet *source.FileSet
}

// FixThunk lazily produces a fix. Build may have side effects; callers
// materialise each fix at most once.
type FixThunk interface {
	Build(ctx FixBuildContext) (Fix, error)
}

// FixThunkFunc adapts a function to FixThunk.
type FixThunkFunc func(ctx FixBuildContext) (Fix, error)

func (f FixThunkFunc) Build(ctx FixBuildContext) (Fix, error) { return f(ctx) }

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
	Thunk         FixThunk
}

// Resolve expands the thunk (if any) into concrete edits. Metadata set on
// the outer fix wins over empty fields of the built one.
func (f Fix) Resolve(ctx FixBuildContext) (Fix, error) {
	if f.Thunk == nil {
		f.Edits = append([]TextEdit(nil), f.Edits...)
		return f, nil
	}
	built, err := f.Thunk.Build(ctx)
	if err != nil {
		return Fix{}, fmt.Errorf("fix %q: %w", f.Title, err)
	}
	if built.ID == "" {
		built.ID = f.ID
	}
	if built.Title == "" {
		built.Title = f.Title
	}
	if f.IsPreferred {
		built.IsPreferred = true
	}
	built.Edits = append(append([]TextEdit(nil), f.Edits...), built.Edits...)
	built.Thunk = nil
	return built, nil
}
