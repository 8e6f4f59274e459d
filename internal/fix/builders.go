package fix

import (
	"typedsql/internal/diag"
	"typedsql/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithKind overrides fix classification.
func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) {
		f.Kind = kind
	}
}

// Preferred marks fix as preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// ReplaceSpan replaces text covered by span with newText. An empty span
// turns the edit into an insertion; a non-empty expect guards the edit.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	edit := diag.TextEdit{
		Span:    span,
		NewText: newText,
		OldText: expect,
	}
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{edit},
	}
	return applyOptions(fix, opts)
}

// Lazy describes a fix whose edits are produced by thunk on demand.
// Nothing runs until the fix engine materialises it.
func Lazy(title string, thunk diag.FixThunk, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Thunk:         thunk,
	}
	return applyOptions(fix, opts)
}
