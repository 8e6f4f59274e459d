// Package trace records what the checker is doing: program loading, the
// check of each file, the passes inside a file and single assertions.
//
// Enable it from the command line:
//
//	expecttype check --trace=- --trace-level=detail ./...
//
// The tracer and the current span travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeFile, "expect")
//	defer span.ForFile(path).End("")
//
// Levels map to scopes: phase shows driver and file events, detail adds
// passes, debug adds single assertions. The ring mode keeps the last events
// in memory so they can be dumped when a run fails.
package trace
