// Package checkertest provides an in-memory checker.Program for tests.
package checkertest

import (
	"strings"

	"typedsql/internal/checker"
)

// Node is a hand-built syntax node.
type Node struct {
	S, E  uint32
	Kids  []*Node
	Inner *Node
	// Type is returned by Program.TypeString.
	Type string
	// Hover is returned by Program.QuickInfo when non-empty.
	Hover string
}

func (n *Node) Start() uint32 { return n.S }
func (n *Node) End() uint32   { return n.E }

func (n *Node) Children() []checker.Node {
	out := make([]checker.Node, len(n.Kids))
	for i, k := range n.Kids {
		out[i] = k
	}
	return out
}

func (n *Node) Unwrap() checker.Node {
	if n.Inner == nil {
		return nil
	}
	return n.Inner
}

// At builds a node covering the first occurrence of needle in text.
// It panics when needle is absent, which only happens in a broken test.
func At(text, needle, typ string, kids ...*Node) *Node {
	i := strings.Index(text, needle)
	if i < 0 {
		panic("checkertest: " + needle + " not found")
	}
	return &Node{S: uint32(i), E: uint32(i + len(needle)), Type: typ, Kids: kids}
}

// Program serves fixed files and diagnostics.
type Program struct {
	Files map[string]*checker.SourceFile
	Diags map[string][]checker.Diagnostic
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{
		Files: make(map[string]*checker.SourceFile),
		Diags: make(map[string][]checker.Diagnostic),
	}
}

// AddFile registers path with content and top-level nodes.
func (p *Program) AddFile(path, content string, nodes ...*Node) *checker.SourceFile {
	root := &Node{E: uint32(len(content)), Kids: nodes}
	f := &checker.SourceFile{Path: path, Content: []byte(content), Root: root}
	p.Files[path] = f
	return f
}

// AddDiagnostic reports message over the first occurrence of needle in the
// content of the file at path. The diagnostic is attributed to file, which
// may differ from path to simulate findings in other files.
func (p *Program) AddDiagnostic(path, file, needle, message string) {
	d := checker.Diagnostic{File: file, Message: message}
	if f, ok := p.Files[path]; ok && needle != "" {
		d.Start = strings.Index(string(f.Content), needle)
		d.Length = len(needle)
	}
	p.Diags[path] = append(p.Diags[path], d)
}

func (p *Program) SourceFile(path string) (*checker.SourceFile, bool) {
	f, ok := p.Files[path]
	return f, ok
}

func (p *Program) Diagnostics(f *checker.SourceFile) []checker.Diagnostic {
	return p.Diags[f.Path]
}

func (p *Program) TypeString(n checker.Node) string {
	if fn, ok := n.(*Node); ok {
		return fn.Type
	}
	return ""
}

func (p *Program) QuickInfo(n checker.Node) (string, bool) {
	if fn, ok := n.(*Node); ok && fn.Hover != "" {
		return fn.Hover, true
	}
	return "", false
}
