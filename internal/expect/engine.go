// Package expect verifies type assertions written as comment directives
// against a type-checking service and turns every unmet expectation into a
// Failure.
package expect

import (
	"context"
	"fmt"
	"regexp"

	"fortio.org/safecast"

	"typedsql/internal/checker"
	"typedsql/internal/diag"
	"typedsql/internal/directive"
	"typedsql/internal/locate"
	"typedsql/internal/snapshot"
	"typedsql/internal/source"
	"typedsql/internal/trace"
	"typedsql/internal/typestr"
)

// Options tune an Engine.
type Options struct {
	// DisableSnapshotFix keeps snapshot repairs from writing the sidecar.
	// The repair is still attached to the failure.
	DisableSnapshotFix bool
	// IgnoreDiagnostics drops matching diagnostics. Nil means DefaultIgnore.
	IgnoreDiagnostics []*regexp.Regexp
}

// Engine checks files of one program. It holds no per-file state and is
// safe for concurrent use when the Program is.
type Engine struct {
	program checker.Program
	store   *snapshot.Store
	opts    Options
}

// New returns an engine over program. A nil store uses the file system.
func New(program checker.Program, store *snapshot.Store, opts Options) *Engine {
	if store == nil {
		store = &snapshot.Store{}
	}
	if opts.IgnoreDiagnostics == nil {
		opts.IgnoreDiagnostics = DefaultIgnore
	}
	return &Engine{program: program, store: store, opts: opts}
}

// fileCheck is the state of one Check call.
type fileCheck struct {
	*Engine
	file     *source.File
	src      *checker.SourceFile
	failures []Failure
}

// Check verifies file and returns its failures in report order.
func (e *Engine) Check(ctx context.Context, file *source.File) []Failure {
	ctx, span := trace.Start(ctx, trace.ScopeFile, "expect")
	c := &fileCheck{Engine: e, file: file}
	defer func() {
		span.ForFile(file.Path).SetInt("failures", len(c.failures)).End("")
	}()

	src, ok := e.program.SourceFile(file.Path)
	if !ok {
		c.failures = append(c.failures, Failure{
			Kind:   FileNotIncluded,
			Span:   source.Span{File: file.ID},
			Line:   1,
			Column: 0,
			Data:   map[string]string{"fileName": file.Path},
		})
		return c.failures
	}
	c.src = src

	diags := filterIgnored(e.program.Diagnostics(src), e.opts.IgnoreDiagnostics)
	if src.Generated || !directive.HasDirectives(file.Content) {
		trace.Mark(ctx, trace.ScopePass, "plain", file.Path)
		for _, d := range diags {
			c.compileError(d)
		}
		return c.failures
	}

	set := directive.Parse(file.Content, file.LineStarts())
	for _, line := range set.Duplicates {
		c.atLine(MultipleAssertions, line, nil)
	}
	unexpected, missing := reconcile(file, file.Path, diags, set)
	for _, d := range unexpected {
		c.compileError(d)
	}
	for _, line := range missing {
		c.atLine(ExpectedErrorNotFound, line, nil)
	}
	for _, se := range set.SyntaxErrors {
		c.atLine(SyntaxError, se.Line, map[string]string{"message": se.Message()})
	}

	orphanTypes := c.typePass(ctx, set)
	orphanPoints := c.pointAtPass(ctx, set)
	for _, line := range orphanPoints {
		c.atLine(OrphanAssertion, line, nil)
	}
	for _, line := range orphanTypes {
		c.atLine(OrphanAssertion, line, nil)
	}
	return c.failures
}

// typePass checks $ExpectType and $ExpectTypeSnapshot assertions and
// returns the lines that bound to no node.
func (c *fileCheck) typePass(ctx context.Context, set *directive.Set) []int {
	lines := set.TypeLines()
	_, span := trace.Start(ctx, trace.ScopePass, "types")
	defer span.SetInt("assertions", len(lines)).End("")

	bound := locate.BindLines(c.src.Root, c.file, lines)
	var orphans []int
	for _, line := range lines {
		b, ok := bound[line]
		if !ok {
			orphans = append(orphans, line)
			continue
		}
		ta := set.Types[line]
		actual := c.program.TypeString(b.Target)
		if ta.Kind == directive.KindExpectTypeSnapshot {
			c.checkSnapshot(ta, b.Node, actual)
			continue
		}
		if ta.Expected == "" || !typestr.Match(actual, ta.Expected) {
			c.atNode(TypesDoNotMatch, b.Node, map[string]string{"expected": ta.Expected, "actual": actual}, nil)
		}
	}
	return orphans
}

func (c *fileCheck) checkSnapshot(ta *directive.TypeAssertion, node checker.Node, actual string) {
	expected, found := c.store.Get(c.file.Path, ta.SnapshotName)
	if found && expected != "" && typestr.Match(actual, expected) {
		return
	}
	at := c.nodeSpan(node)
	at.End = at.Start
	repair := snapshotFix(c.store, c.file.Path, ta.SnapshotName, actual, at, c.opts.DisableSnapshotFix)
	kind := SnapshotMismatch
	if !found {
		kind = SnapshotNotFound
	}
	c.atNode(kind, node, map[string]string{"expected": expected, "actual": actual}, repair)
}

// pointAtPass checks `^?` queries and returns the lines of queries that
// found no node or no hover text.
func (c *fileCheck) pointAtPass(ctx context.Context, set *directive.Set) []int {
	_, span := trace.Start(ctx, trace.ScopePass, "point-at")
	defer span.SetInt("queries", len(set.PointAts)).End("")

	var orphans []int
	for _, pa := range set.PointAts {
		if pa.Unattached {
			orphans = append(orphans, pa.Line)
			continue
		}
		pos := clampOffset(c.file, pa.Position)
		node := locate.NodeAt(c.src.Root, pos)
		if node == nil {
			orphans = append(orphans, c.file.LineOf(pos))
			continue
		}
		actual, ok := c.program.QuickInfo(node)
		if !ok {
			orphans = append(orphans, c.file.LineOf(pos))
			continue
		}
		if typestr.MatchModuloWhitespace(actual, pa.Expected) {
			continue
		}
		repair := pointAtFix(c.file.Path, c.file, pa.ExpectedRange, pa.Prefix, pa.InsertSpace, actual)
		c.atNode(TypesDoNotMatch, node, map[string]string{"expected": pa.Expected, "actual": actual}, repair)
	}
	return orphans
}

// compileError reports a diagnostic of the service. Diagnostics of other
// files, or of no file, are pinned to the top of the checked file.
func (c *fileCheck) compileError(d checker.Diagnostic) {
	if !sameFile(d.File, c.file.Path) {
		msg := d.Message
		if d.File != "" {
			msg = fmt.Sprintf("%s: %s", d.File, d.Message)
		}
		c.failures = append(c.failures, Failure{
			Kind:   CompileError,
			Span:   source.Span{File: c.file.ID},
			Line:   1,
			Column: 0,
			Data:   map[string]string{"message": msg},
		})
		return
	}
	start := clampOffset(c.file, d.Start)
	end := clampOffset(c.file, d.Start+max(d.Length, 0))
	f := c.located(CompileError, start, end, map[string]string{"message": d.Message})
	f.HasEnd = d.Length > 0
	c.failures = append(c.failures, f)
}

// atLine reports at column 0 of a 0-based line.
func (c *fileCheck) atLine(kind Kind, line int, data map[string]string) {
	start := c.file.LineStart(line)
	c.failures = append(c.failures, Failure{
		Kind:   kind,
		Span:   source.Span{File: c.file.ID, Start: start, End: start},
		Line:   line + 1,
		Column: 0,
		Data:   data,
	})
}

func (c *fileCheck) atNode(kind Kind, node checker.Node, data map[string]string, repair *diag.Fix) {
	sp := c.nodeSpan(node)
	f := c.located(kind, sp.Start, sp.End, data)
	f.Fix = repair
	c.failures = append(c.failures, f)
}

func (c *fileCheck) located(kind Kind, start, end uint32, data map[string]string) Failure {
	from := c.file.Position(start)
	to := c.file.Position(end)
	return Failure{
		Kind:      kind,
		Span:      source.Span{File: c.file.ID, Start: start, End: end},
		Line:      int(from.Line),
		Column:    int(from.Col) - 1,
		EndLine:   int(to.Line),
		EndColumn: int(to.Col) - 1,
		HasEnd:    true,
		Data:      data,
	}
}

func (c *fileCheck) nodeSpan(node checker.Node) source.Span {
	limit, err := safecast.Conv[uint32](len(c.file.Content))
	if err != nil {
		limit = 0
	}
	return source.Span{File: c.file.ID, Start: min(node.Start(), limit), End: min(node.End(), limit)}
}
