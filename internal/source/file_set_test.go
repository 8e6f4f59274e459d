package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.go", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	id2 := fs.Add("test.go", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	// GetLatest указывает на последнюю версию
	latestID, exists := fs.GetLatest("test.go")
	if !exists {
		t.Fatal("Expected file to exist after second Add")
	}
	if latestID != id2 {
		t.Errorf("Expected latest ID to be %d, got %d", id2, latestID)
	}

	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("Expected first file content to be 'hello world', got %q", got)
	}
	if got := string(fs.Get(id2).Content); got != "hello universe" {
		t.Errorf("Expected second file content to be 'hello universe', got %q", got)
	}
	if fs.Get(FileID(99)) != nil {
		t.Error("Expected nil for unknown FileID")
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()

	id := fs.AddVirtual("a.go", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3} // позиции символов \n
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("Expected FileVirtual flag to be set")
	}
}

func TestLineStartsAndLineOf(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("x.go", []byte("ab\n\ncd\nef")))

	starts := file.LineStarts()
	want := []uint32{0, 3, 4, 7}
	if len(starts) != len(want) {
		t.Fatalf("LineStarts() = %v, want %v", starts, want)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("LineStarts() = %v, want %v", starts, want)
		}
	}

	tests := []struct {
		off  uint32
		line int
	}{
		{0, 0}, {1, 0}, {2, 0}, // '\n' belongs to the line it terminates
		{3, 1},
		{4, 2}, {6, 2},
		{7, 3}, {9, 3},
	}
	for _, tt := range tests {
		if got := file.LineOf(tt.off); got != tt.line {
			t.Errorf("LineOf(%d) = %d, want %d", tt.off, got, tt.line)
		}
	}

	if got := file.LineStart(2); got != 4 {
		t.Errorf("LineStart(2) = %d, want 4", got)
	}
	if got := file.LineStart(10); got != 9 {
		t.Errorf("LineStart(10) = %d, want len(content)", got)
	}
}

func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()

	// α занимает 2 байта
	id := fs.AddVirtual("test.go", []byte("α\n"))
	start, end := fs.Resolve(Span{File: id, Start: 0, End: 1})

	if want := (LineCol{Line: 1, Col: 1}); start != want {
		t.Errorf("Expected start %+v, got %+v", want, start)
	}
	if want := (LineCol{Line: 1, Col: 2}); end != want {
		t.Errorf("Expected end %+v, got %+v", want, end)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("x.go", []byte("first\nsecond\n")))

	tests := []struct {
		line uint32
		want string
	}{
		{0, ""},
		{1, "first"},
		{2, "second"},
		{3, ""},
		{4, ""},
	}
	for _, tt := range tests {
		if got := file.GetLine(tt.line); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestGeneratedFlag(t *testing.T) {
	fs := NewFileSet()
	gen := fs.Get(fs.AddVirtual("gen.go", []byte("// Code generated by stringer. DO NOT EDIT.\n\npackage p\n")))
	if gen.Flags&FileGenerated == 0 {
		t.Error("Expected FileGenerated flag for generated header")
	}
	plain := fs.Get(fs.AddVirtual("plain.go", []byte("package p\n\n// Code generated by hand. DO NOT EDIT.\n")))
	if plain.Flags&FileGenerated != 0 {
		t.Error("Header after the package clause must not mark the file generated")
	}
	late := fs.Get(fs.AddVirtual("late.go", []byte("// Package p.\npackage p\n\n// Code generated by hand. DO NOT EDIT.\n")))
	if late.Flags&FileGenerated != 0 {
		t.Error("Only the header before the package clause is inspected")
	}
}

func TestLoadKeepsBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.go")
	content := []byte("package p\r\nvar x = 1\r\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := fs.Get(id).Content; string(got) != string(content) {
		t.Fatalf("Load must keep CRLF bytes, got %q", got)
	}
}
