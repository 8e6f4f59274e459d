package fix

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"typedsql/internal/diag"
	"typedsql/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines which fixes Apply selects.
type ApplyMode uint8

const (
	// ApplyModeAll applies every always-safe fix.
	ApplyModeAll ApplyMode = iota
	// ApplyModeID applies the single fix named by ApplyOptions.TargetID.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected and where results go.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// WriteFile persists a rewritten file; os.WriteFile when nil.
	WriteFile func(path string, data []byte, perm os.FileMode) error
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

func (r *ApplyResult) skip(f diag.Fix, reason string) {
	r.Skipped = append(r.Skipped, SkippedFix{ID: f.ID, Title: f.Title, Reason: reason})
}

type candidate struct {
	diag *diag.Diagnostic
	fix  diag.Fix
	seq  int
}

// Apply selects a subset of the diagnostics' fixes according to opts,
// materialises only the selected ones and writes the affected files.
// Selection reads the outer fix (ID, applicability), so thunks of fixes that
// are not applied never run and their side effects (snapshot writes) do not
// happen. All edits of one file are spliced against its original content in
// a single pass; a fix overlapping an already accepted one is skipped.
func Apply(fs *source.FileSet, diagnostics []*diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	res := &ApplyResult{}
	if fs == nil {
		return res, errors.New("fix: FileSet is nil")
	}

	candidates, skipped := gatherCandidates(diagnostics)
	res.Skipped = append(res.Skipped, skipped...)
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.diag.Primary.File, b.diag.Primary.File),
			cmp.Compare(a.diag.Primary.Start, b.diag.Primary.Start),
			cmp.Compare(a.diag.Primary.End, b.diag.Primary.End),
			cmp.Compare(a.seq, b.seq),
		)
	})

	selected := selectCandidates(candidates, opts, res)
	if len(selected) == 0 {
		return res, ErrNoFixes
	}

	ctx := diag.FixBuildContext{FileSet: fs}
	p := &plan{fs: fs, files: make(map[source.FileID]*pendingFile)}
	for _, c := range selected {
		resolved, err := c.fix.Resolve(ctx)
		if err != nil {
			res.skip(c.fix, fmt.Sprintf("failed to build fix: %v", err))
			continue
		}
		resolved.ID = c.fix.ID
		if len(resolved.Edits) == 0 {
			res.skip(resolved, "fix has no edits")
			continue
		}
		n, reason := p.add(resolved)
		if reason != "" {
			res.skip(resolved, reason)
			continue
		}
		res.Applied = append(res.Applied, AppliedFix{
			ID:            resolved.ID,
			Title:         resolved.Title,
			Code:          c.diag.Code,
			Message:       c.diag.Message,
			Applicability: resolved.Applicability,
			PrimaryPath:   displayPath(fs, c.diag.Primary.File),
			EditCount:     n,
		})
	}

	write := opts.WriteFile
	if write == nil {
		write = os.WriteFile
	}
	changes, err := p.commit(write)
	res.FileChanges = changes
	if err != nil {
		return res, err
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}
	return res, nil
}

// gatherCandidates lists every diagnostic's fixes without building them.
// A fix with neither edits nor a thunk, or repeating an ID already seen,
// becomes a skip. Missing IDs are derived from the diagnostic code,
// position and fix index.
func gatherCandidates(diagnostics []*diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		out   []candidate
		skips []SkippedFix
	)
	seen := make(map[string]bool)
	for _, d := range diagnostics {
		if d == nil {
			continue
		}
		for i, f := range d.Fixes {
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, i)
			}
			switch {
			case len(f.Edits) == 0 && f.Thunk == nil:
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
			case seen[f.ID]:
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
			default:
				seen[f.ID] = true
				out = append(out, candidate{diag: d, fix: f, seq: len(out)})
			}
		}
	}
	return out, skips
}

func selectCandidates(candidates []candidate, opts ApplyOptions, res *ApplyResult) []candidate {
	if opts.Mode == ApplyModeID {
		i := slices.IndexFunc(candidates, func(c candidate) bool { return c.fix.ID == opts.TargetID })
		if i < 0 {
			res.Skipped = append(res.Skipped, SkippedFix{ID: opts.TargetID, Reason: "fix id not found"})
			return nil
		}
		return candidates[i : i+1]
	}

	selected := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.fix.Applicability != diag.FixApplicabilityAlwaysSafe {
			res.skip(c.fix, fmt.Sprintf("applicability is %s", c.fix.Applicability))
			continue
		}
		selected = append(selected, c)
	}
	return selected
}

// plan collects accepted edits per file, in original-content coordinates.
type plan struct {
	fs    *source.FileSet
	files map[source.FileID]*pendingFile
}

type pendingFile struct {
	file  *source.File
	edits []diag.TextEdit
}

// add validates every edit of f and accepts all of them, or none with a
// reason. It returns the number of accepted edits.
func (p *plan) add(f diag.Fix) (int, string) {
	staged := make(map[source.FileID][]diag.TextEdit)
	for _, edit := range f.Edits {
		id := edit.Span.File
		file := p.fs.Get(id)
		if file == nil {
			return 0, "target file is unknown"
		}
		if file.Flags&source.FileVirtual != 0 {
			return 0, "target file is virtual"
		}
		if file.Flags&source.FileGenerated != 0 {
			return 0, "target file is generated"
		}
		start, end := int(edit.Span.Start), int(edit.Span.End)
		if end < start || end > len(file.Content) {
			return 0, "edit span out of range"
		}
		if edit.OldText != "" && string(file.Content[start:end]) != edit.OldText {
			return 0, "existing text does not match expected content"
		}
		var accepted []diag.TextEdit
		if pf := p.files[id]; pf != nil {
			accepted = pf.edits
		}
		for _, other := range slices.Concat(accepted, staged[id]) {
			if spansConflict(other, edit) {
				return 0, fmt.Sprintf("conflicts with previously applied edits in %s", displayPath(p.fs, id))
			}
		}
		staged[id] = append(staged[id], edit)
	}
	for id, edits := range staged {
		pf := p.files[id]
		if pf == nil {
			pf = &pendingFile{file: p.fs.Get(id)}
			p.files[id] = pf
		}
		pf.edits = append(pf.edits, edits...)
	}
	return len(f.Edits), ""
}

// commit splices and writes every file whose content changed, in file order.
// Edits that leave the text untouched (side-effect-only fixes) write nothing.
func (p *plan) commit(write func(string, []byte, os.FileMode) error) ([]FileChange, error) {
	ids := make([]source.FileID, 0, len(p.files))
	for id := range p.files {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var changes []FileChange
	for _, id := range ids {
		pf := p.files[id]
		out := splice(pf.file.Content, pf.edits)
		if bytes.Equal(out, pf.file.Content) {
			continue
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(pf.file.Path); err == nil {
			mode = info.Mode()
		}
		if err := write(pf.file.Path, out, mode); err != nil {
			return changes, fmt.Errorf("write %s: %w", pf.file.Path, err)
		}
		changes = append(changes, FileChange{
			Path:      pf.file.FormatPath("relative", p.fs.BaseDir()),
			EditCount: len(pf.edits),
		})
	}
	slices.SortStableFunc(changes, func(a, b FileChange) int { return cmp.Compare(a.Path, b.Path) })
	return changes, nil
}

// splice applies non-overlapping edits to content. Insertions at the same
// offset keep their acceptance order.
func splice(content []byte, edits []diag.TextEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.TextEdit) int {
		return cmp.Or(cmp.Compare(a.Span.Start, b.Span.Start), cmp.Compare(a.Span.End, b.Span.End))
	})
	var buf bytes.Buffer
	buf.Grow(len(content))
	cursor := 0
	for _, e := range sorted {
		buf.Write(content[cursor:e.Span.Start])
		buf.WriteString(e.NewText)
		cursor = int(e.Span.End)
	}
	buf.Write(content[cursor:])
	return buf.Bytes()
}

// spansConflict reports whether two edits overlap. Spans are half-open;
// two insertions never conflict, an insertion conflicts with a span that
// strictly contains its position.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End
	switch {
	case aStart == aEnd && bStart == bEnd:
		return false
	case aStart == aEnd:
		return bStart <= aStart && aStart < bEnd
	case bStart == bEnd:
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func displayPath(fs *source.FileSet, id source.FileID) string {
	file := fs.Get(id)
	if file == nil {
		return ""
	}
	return file.FormatPath("auto", fs.BaseDir())
}
