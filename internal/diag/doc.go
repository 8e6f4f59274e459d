// Package diag defines the diagnostic model shared by the checker adapters,
// the assertion engine and the output formatters.
//
// # Model
//
//   - Diagnostic carries a Severity, a stable Code, a message, a primary
//     source.Span, optional notes and optional fixes.
//   - Code values are grouped by prefix: CHK for findings reported by the
//     type-checking service, EXP for assertion failures, IO for loading
//     errors. Code.ID returns the stable textual form (for example EXP2001).
//   - Bag collects diagnostics with an optional upper bound; Reporter is the
//     narrow interface producers write to.
//
// # Fixes
//
// A Fix is a list of TextEdit values plus metadata. Producers that need I/O
// or expensive computation to describe a repair attach a FixThunk instead;
// the thunk runs only when a consumer calls Resolve, so building a
// Diagnostic never has side effects. The fix engine resolves only the fixes
// it is about to apply.
package diag
