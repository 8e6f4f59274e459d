package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	// FileGenerated marks files carrying a "Code generated ... DO NOT EDIT." header.
	FileGenerated
)

// File captures metadata and content for a single source file.
// Content is kept byte-for-byte as read: offsets reported by the type
// checker must line up with it, so CRLF and BOM are not normalised.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n' bytes
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
