package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"typedsql/internal/source"
)

// shortEntry is one line of short output.
type shortEntry struct {
	severity string
	code     string
	path     string
	line     uint32
	col      uint32
	msg      string
}

func (e shortEntry) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", e.severity, e.code, e.path, e.line, e.col, e.msg)
}

func compareShort(a, b shortEntry) int {
	return cmp.Or(
		cmp.Compare(a.path, b.path),
		cmp.Compare(a.line, b.line),
		cmp.Compare(a.col, b.col),
		cmp.Compare(a.severity, b.severity),
		cmp.Compare(a.code, b.code),
		cmp.Compare(a.msg, b.msg),
	)
}

// FormatShortDiagnostics renders one line per diagnostic (and per note when
// includeNotes is set) as `severity CODE path:line:col message`, sorted by
// position. Paths are relative to the FileSet base with forward slashes, so
// the output is stable across machines and usable in golden tests.
func FormatShortDiagnostics(diags []*Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil {
		return ""
	}
	var entries []shortEntry
	add := func(sev string, code Code, span source.Span, msg string) {
		file := fs.Get(span.File)
		if file == nil {
			return
		}
		start, _ := fs.Resolve(span)
		entries = append(entries, shortEntry{
			severity: sev,
			code:     code.ID(),
			path:     slashPath(file.FormatPath("relative", fs.BaseDir())),
			line:     start.Line,
			col:      start.Col,
			msg:      oneLine(msg),
		})
	}
	for _, d := range diags {
		add(strings.ToLower(d.Severity.String()), d.Code, d.Primary, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			add("note", d.Code, n.Span, n.Msg)
		}
	}
	slices.SortStableFunc(entries, compareShort)

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

func slashPath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// oneLine folds every line break in msg into a space.
func oneLine(msg string) string {
	msg = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg)
	return strings.TrimSpace(msg)
}
