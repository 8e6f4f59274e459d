package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"typedsql/internal/diag"
	"typedsql/internal/source"
)

type palette struct {
	on      bool
	err     *color.Color
	warn    *color.Color
	info    *color.Color
	path    *color.Color
	gutter  *color.Color
	caret   *color.Color
	removed *color.Color
	added   *color.Color
}

func newPalette(on bool) palette {
	return palette{
		on:      on,
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		path:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgRed, color.Bold),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
	}
}

func (p palette) paint(c *color.Color, s string) string {
	if !p.on {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (p palette) severity(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.paint(p.err, sev.String())
	case diag.SevWarning:
		return p.paint(p.warn, sev.String())
	}
	return p.paint(p.info, sev.String())
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		start, _ := fs.Resolve(d.Primary)
		path := displayPath(fs, d.Primary.File, opts.PathMode)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			pal.paint(pal.path, fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)),
			pal.severity(d.Severity), d.Code.ID(), d.Message)
		writeContext(w, fs, d.Primary, opts, pal)

		if opts.ShowNotes {
			for _, n := range d.Notes {
				ns, _ := fs.Resolve(n.Span)
				fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", displayPath(fs, n.Span.File, opts.PathMode), ns.Line, ns.Col, n.Msg)
			}
		}
		if opts.ShowFixes {
			for j, f := range sortedFixes(d.Fixes) {
				writeFix(w, fs, j+1, f, opts, pal)
			}
		}
	}
}

func writeContext(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, pal palette) {
	f := fs.Get(span.File)
	if f == nil || opts.Context < 0 {
		return
	}
	start, end := fs.Resolve(span)
	first := max(int(start.Line)-int(opts.Context), 1)
	last := min(int(start.Line)+int(opts.Context), f.LineCount())
	numWidth := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(uint32(ln))
		fmt.Fprintf(w, "%s %s\n", pal.paint(pal.gutter, fmt.Sprintf("%*d |", numWidth, ln)), clip(text, opts.Width))
		if ln != int(start.Line) {
			continue
		}
		from := int(start.Col) - 1
		to := len(text)
		if end.Line == start.Line {
			to = int(end.Col) - 1
		}
		from, to = min(from, len(text)), min(max(to, from), len(text))
		marker := "^" + strings.Repeat("~", max(runewidth.StringWidth(text[from:to])-1, 0))
		fmt.Fprintf(w, "%s %s%s\n", pal.paint(pal.gutter, strings.Repeat(" ", numWidth)+" |"), indentFor(text[:from]), pal.paint(pal.caret, marker))
	}
}

// indentFor returns blank space occupying the same display width as
// prefix. Tabs are kept so that the caret lines up under tabbed code.
func indentFor(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func clip(text string, width uint8) string {
	if width == 0 {
		return text
	}
	return runewidth.Truncate(text, int(width), "…")
}

func writeFix(w io.Writer, fs *source.FileSet, n int, f diag.Fix, opts PrettyOpts, pal palette) {
	fmt.Fprintf(w, "  fix #%d: %s [%s, %s]", n, f.Title, f.Kind, f.Applicability)
	if f.ID != "" {
		fmt.Fprintf(w, " id=%s", f.ID)
	}
	fmt.Fprintln(w)
	if f.Thunk != nil {
		fmt.Fprintln(w, "    edits are computed when the fix is applied")
	}
	for _, e := range f.Edits {
		s, en := fs.Resolve(e.Span)
		fmt.Fprintf(w, "    edit %s:%d:%d-%d:%d apply=%q\n", displayPath(fs, e.Span.File, opts.PathMode), s.Line, s.Col, en.Line, en.Col, e.NewText)
		if !opts.ShowPreview {
			continue
		}
		preview, err := buildFixEditPreview(fs, e)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, "    preview:")
		for _, l := range preview.before {
			fmt.Fprintf(w, "      %s\n", pal.paint(pal.removed, "- "+l))
		}
		for _, l := range preview.after {
			fmt.Fprintf(w, "      %s\n", pal.paint(pal.added, "+ "+l))
		}
	}
}

func displayPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	case PathModeAuto:
		return f.FormatPath("auto", "")
	}
	return f.Path
}
