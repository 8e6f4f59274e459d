package diagfmt

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"typedsql/internal/diag"
	"typedsql/internal/source"
)

// fixEditPreview holds the whole lines an edit touches, before and after.
type fixEditPreview struct {
	before []string
	after  []string
}

func buildFixEditPreview(fs *source.FileSet, edit diag.TextEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	content := file.Content
	start, end := int(edit.Span.Start), int(edit.Span.End)
	if start > end || end > len(content) {
		return fixEditPreview{}, fmt.Errorf("edit span %d-%d out of range", start, end)
	}

	lo := bytes.LastIndexByte(content[:start], '\n') + 1
	hi := len(content)
	if i := bytes.IndexByte(content[end:], '\n'); i >= 0 {
		hi = end + i
	}
	after := slices.Concat(content[lo:start], []byte(edit.NewText), content[end:hi])
	return fixEditPreview{
		before: previewLines(content[lo:hi]),
		after:  previewLines(after),
	}, nil
}

func previewLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}
