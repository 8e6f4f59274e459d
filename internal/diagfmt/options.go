package diagfmt

import "fmt"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// Format selects an output renderer.
type Format uint8

const (
	FormatPretty Format = iota
	FormatShort
	FormatJSON
)

// ParseFormat parses pretty, short or json.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "pretty":
		return FormatPretty, nil
	case "short":
		return FormatShort, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatPretty, fmt.Errorf("unknown output format %q (want pretty, short or json)", s)
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	Context  int8
	PathMode PathMode
	// Width caps the rendered source line in display cells; 0 means no limit.
	Width       uint8
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}
