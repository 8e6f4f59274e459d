package directive

import (
	"sort"
	"sync"
)

// Entry is a directive found in some file.
type Entry struct {
	Path string
	Occurrence
}

// Registry collects directives across files. It is safe for concurrent
// use so that files can be scanned in parallel.
type Registry struct {
	mu      sync.Mutex
	entries []Entry
	byKind  map[Kind][]int // kind -> indices into entries
}

// NewRegistry creates an empty directive registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]Entry, 0),
		byKind:  make(map[Kind][]int),
	}
}

// Add registers a directive.
func (r *Registry) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := len(r.entries)
	r.entries = append(r.entries, e)
	r.byKind[e.Kind] = append(r.byKind[e.Kind], idx)
}

// All returns every entry ordered by path and offset.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedEntries(append([]Entry(nil), r.entries...))
}

// FilterByKind returns entries of any of the given kinds, or all entries
// when kinds is empty.
func (r *Registry) FilterByKind(kinds []Kind) []Entry {
	if len(kinds) == 0 {
		return r.All()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Entry
	for _, k := range kinds {
		for _, idx := range r.byKind[k] {
			result = append(result, r.entries[idx])
		}
	}
	return sortedEntries(result)
}

// CollectFromFile scans text and registers every directive in it.
func (r *Registry) CollectFromFile(path string, text []byte, lineStarts []uint32) int {
	occs := Scan(text, lineStarts)
	for _, occ := range occs {
		r.Add(Entry{Path: path, Occurrence: occ})
	}
	return len(occs)
}

func sortedEntries(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Path != entries[j].Path {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].Offset < entries[j].Offset
	})
	return entries
}
