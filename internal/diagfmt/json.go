package diagfmt

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"

	"typedsql/internal/diag"
	"typedsql/internal/source"
)

// Location задаёт место в файле; line/col заполняются только с IncludePositions.
type Location struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type Note struct {
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

// Edit is one text edit of a repair. Before/After are the whole lines the
// edit touches, present only with IncludePreviews.
type Edit struct {
	Location Location `json:"location"`
	NewText  string   `json:"new_text"`
	OldText  string   `json:"old_text,omitempty"`
	Before   []string `json:"before_lines,omitempty"`
	After    []string `json:"after_lines,omitempty"`
}

// Repair describes a fix. Lazy repairs (snapshot writes) list no edits:
// they are only built by `check --fix`.
type Repair struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Kind          string `json:"kind"`
	Applicability string `json:"applicability"`
	IsPreferred   bool   `json:"is_preferred,omitempty"`
	Lazy          bool   `json:"lazy,omitempty"`
	Edits         []Edit `json:"edits,omitempty"`
}

// Failure is one reported assertion failure or compile error.
type Failure struct {
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
	Notes    []Note   `json:"notes,omitempty"`
	Repairs  []Repair `json:"fixes,omitempty"`
}

// Report is the root of JSON output.
type Report struct {
	Failures []Failure `json:"failures"`
	Count    int       `json:"count"`
	// ByCode counts the reported failures per code, e.g. {"EXP2001": 2}.
	ByCode map[string]int `json:"by_code,omitempty"`
	// Files is the number of distinct files with at least one failure.
	Files int `json:"files"`
}

// BuildReport собирает структуру JSON-вывода без сериализации.
func BuildReport(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) Report {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	r := Report{Failures: make([]Failure, 0, len(items))}
	loc := func(span source.Span) Location { return location(fs, span, opts) }
	files := make(map[source.FileID]bool)

	for _, d := range items {
		f := Failure{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: loc(d.Primary),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				f.Notes = append(f.Notes, Note{Message: n.Msg, Location: loc(n.Span)})
			}
		}
		if opts.IncludeFixes {
			for _, fix := range sortedFixes(d.Fixes) {
				f.Repairs = append(f.Repairs, repair(fs, fix, opts))
			}
		}
		r.Failures = append(r.Failures, f)
		if r.ByCode == nil {
			r.ByCode = make(map[string]int)
		}
		r.ByCode[f.Code]++
		files[d.Primary.File] = true
	}
	r.Count = len(r.Failures)
	r.Files = len(files)
	return r
}

func location(fs *source.FileSet, span source.Span, opts JSONOpts) Location {
	l := Location{
		File:      displayPath(fs, span.File, opts.PathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if opts.IncludePositions {
		start, end := fs.Resolve(span)
		l.StartLine, l.StartCol = start.Line, start.Col
		l.EndLine, l.EndCol = end.Line, end.Col
	}
	return l
}

// sortedFixes puts preferred fixes first, then orders by applicability,
// kind, title and id.
func sortedFixes(in []diag.Fix) []diag.Fix {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b diag.Fix) int {
		if a.IsPreferred != b.IsPreferred {
			if a.IsPreferred {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(a.Applicability, b.Applicability),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

// repair renders fix without materialising it: building a lazy fix has side
// effects reserved for the fix engine.
func repair(fs *source.FileSet, fix diag.Fix, opts JSONOpts) Repair {
	r := Repair{
		ID:            fix.ID,
		Title:         fix.Title,
		Kind:          fix.Kind.String(),
		Applicability: fix.Applicability.String(),
		IsPreferred:   fix.IsPreferred,
		Lazy:          fix.Thunk != nil,
	}
	for _, e := range fix.Edits {
		edit := Edit{Location: location(fs, e.Span, opts), NewText: e.NewText, OldText: e.OldText}
		if opts.IncludePreviews {
			if p, err := buildFixEditPreview(fs, e); err == nil {
				edit.Before, edit.After = p.before, p.after
			}
		}
		r.Edits = append(r.Edits, edit)
	}
	return r
}

// JSON пишет отчёт с отступом в два пробела.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(bag, fs, opts))
}
