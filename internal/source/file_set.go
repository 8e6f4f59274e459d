package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"fortio.org/safecast"
)

// FileSet owns the contents of the checked files. Spans refer to files by
// FileID; adding the same path again creates a new version and GetLatest
// follows it. A FileSet is filled before files are checked in parallel and
// is read-only afterwards.
type FileSet struct {
	files   []File
	latest  map[string]FileID
	baseDir string // базовая директория для относительных путей
}

func NewFileSet() *FileSet {
	return &FileSet{latest: make(map[string]FileID)}
}

// NewFileSetWithBase создаёт FileSet с заданной базовой директорией.
func NewFileSetWithBase(baseDir string) *FileSet {
	s := NewFileSet()
	s.baseDir = baseDir
	return s
}

// BaseDir returns the base directory, falling back to the working directory.
func (s *FileSet) BaseDir() string {
	if s.baseDir != "" {
		return s.baseDir
	}
	wd, _ := os.Getwd()
	return wd
}

// Add stores content under path and returns its new FileID. Go's
// "Code generated ... DO NOT EDIT." header sets FileGenerated.
func (s *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(s.files))
	if err != nil {
		panic(fmt.Errorf("too many files: %w", err))
	}
	if isGenerated(content) {
		flags |= FileGenerated
	}
	id, clean := FileID(n), normalizePath(path)
	s.files = append(s.files, File{
		ID:      id,
		Path:    clean,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	s.latest[clean] = id
	return id
}

// Load reads path from disk and adds it.
func (s *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return s.Add(path, content, 0), nil
}

// AddVirtual adds an in-memory file; the fix engine never writes those.
func (s *FileSet) AddVirtual(name string, content []byte) FileID {
	return s.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil if the ID is unknown.
func (s *FileSet) Get(id FileID) *File {
	if int(id) >= len(s.files) {
		return nil
	}
	return &s.files[id]
}

// GetLatest returns the newest FileID added under path.
func (s *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := s.latest[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into 1-based line/column positions.
func (s *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &s.files[span.File]
	return f.Position(span.Start), f.Position(span.End)
}

// LineCount returns the number of physical lines in the file.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

// LineStarts returns the byte offset of the first byte of every line.
func (f *File) LineStarts() []uint32 {
	starts := make([]uint32, 0, len(f.LineIdx)+1)
	starts = append(starts, 0)
	for _, nl := range f.LineIdx {
		starts = append(starts, nl+1)
	}
	return starts
}

// LineOf returns the 0-based line containing off.
func (f *File) LineOf(off uint32) int {
	return lineOf(f.LineIdx, off)
}

// LineStart returns the offset of the first byte of the 0-based line.
// Lines past the end of the file resolve to len(Content).
func (f *File) LineStart(line int) uint32 {
	switch {
	case line <= 0:
		return 0
	case line-1 < len(f.LineIdx):
		return f.LineIdx[line-1] + 1
	default:
		return f.contentLen()
	}
}

// Position resolves an offset into a 1-based line and 1-based column.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 || int(lineNum) > f.LineCount() {
		return ""
	}
	start := f.LineStart(int(lineNum) - 1)
	end := f.contentLen()
	if int(lineNum)-1 < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}

func (f *File) contentLen() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// FormatPath форматирует путь к файлу в зависимости от режима.
// mode: "absolute", "relative", "basename", "auto"
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path

	case "basename":
		return BaseName(f.Path)

	case "auto":
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)

	default:
		return f.Path
	}
}

var generatedRx = regexp.MustCompile(`(?m)^// Code generated .* DO NOT EDIT\.$`)

// isGenerated follows the Go convention for generated files; only the
// header before the package clause is inspected.
func isGenerated(content []byte) bool {
	head := content
	if bytes.HasPrefix(head, []byte("package ")) {
		return false
	}
	if i := bytes.Index(head, []byte("\npackage ")); i >= 0 {
		head = head[:i]
	}
	return generatedRx.Match(head)
}
