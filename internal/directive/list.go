package directive

import (
	"fmt"
	"io"
	"path/filepath"
)

// ListConfig configures directive listing.
type ListConfig struct {
	// Filter limits output to specific kinds (empty = all).
	Filter []Kind

	// Output receives one line per directive followed by a summary.
	Output io.Writer

	// BaseDir makes printed paths relative when set.
	BaseDir string
}

// ListResult counts listed directives per kind.
type ListResult struct {
	Total     int
	ByKind    map[Kind]int
	Malformed int
}

// Lister prints the directives held by a registry.
type Lister struct {
	config   ListConfig
	registry *Registry
}

// NewLister creates a directive lister.
func NewLister(registry *Registry, config ListConfig) *Lister {
	return &Lister{
		config:   config,
		registry: registry,
	}
}

// List writes every matching entry and a summary line.
func (l *Lister) List() ListResult {
	entries := l.registry.FilterByKind(l.config.Filter)

	result := ListResult{
		Total:  len(entries),
		ByKind: make(map[Kind]int),
	}

	for i := range entries {
		e := &entries[i]
		result.ByKind[e.Kind]++
		status := ""
		if e.Kind != KindPointAt && e.Kind != KindExpectError && e.Payload == "" {
			status = " (missing argument)"
			result.Malformed++
		}
		fmt.Fprintf(l.config.Output, "%s: %s%s\n", l.formatLocation(e), describe(e), status)
	}

	fmt.Fprintln(l.config.Output)
	fmt.Fprintf(l.config.Output, "Directive summary: %d total, %d %s, %d %s, %d %s, %d %s, %d malformed\n",
		result.Total,
		result.ByKind[KindExpectType], KindExpectType,
		result.ByKind[KindExpectTypeSnapshot], KindExpectTypeSnapshot,
		result.ByKind[KindExpectError], KindExpectError,
		result.ByKind[KindPointAt], KindPointAt,
		result.Malformed)

	return result
}

func describe(e *Entry) string {
	if e.Payload == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + " " + e.Payload
}

// formatLocation renders path:line with a 1-based target line.
func (l *Lister) formatLocation(e *Entry) string {
	path := e.Path
	if l.config.BaseDir != "" {
		if rel, err := filepath.Rel(l.config.BaseDir, path); err == nil {
			path = filepath.ToSlash(rel)
		}
	}
	return fmt.Sprintf("%s:%d", path, e.Target+1)
}
