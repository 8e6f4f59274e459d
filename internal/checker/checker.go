// Package checker is the contract between the assertion engine and a
// type-checking service. The engine never inspects language-specific
// syntax; it only walks Node ranges and asks the Program for type strings,
// hover text and diagnostics.
package checker

// Node is a syntax node with a byte range inside its SourceFile.
type Node interface {
	// Start is the offset of the first significant byte, after any
	// leading trivia.
	Start() uint32
	End() uint32
	// Children lists direct children in source order.
	Children() []Node
	// Unwrap returns the expression whose type a line assertion on this
	// node should check (the initializer of a single-value declaration, the
	// expression of an expression statement) or nil when the node is
	// checked as is.
	Unwrap() Node
}

// SourceFile is a file the service knows about.
type SourceFile struct {
	Path    string
	Content []byte
	Root    Node
	// Generated files (declaration/generated code) skip assertion
	// processing; only their diagnostics are reported.
	Generated bool
}

// Diagnostic is a finding reported by the service. File is empty when the
// finding is not attached to any file; Start is a byte offset into File.
type Diagnostic struct {
	File    string
	Start   int
	Length  int
	Message string
}

// Program is a loaded, type-checked program.
type Program interface {
	// SourceFile returns the file at path, or false when the file is not
	// part of the program.
	SourceFile(path string) (*SourceFile, bool)
	// Diagnostics returns every diagnostic relevant to f, including ones
	// attached to other files or to no file at all.
	Diagnostics(f *SourceFile) []Diagnostic
	// TypeString renders the type of n without truncation, or "" when n
	// has no type.
	TypeString(n Node) string
	// QuickInfo renders the hover signature at n.
	QuickInfo(n Node) (string, bool)
}
