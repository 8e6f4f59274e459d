// Package snapshot persists named expected-type strings next to the source
// file they belong to, in <dir>/__type-snapshots__/<file>.snap.json.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Dir is the sidecar directory created next to a source file.
	Dir    = "__type-snapshots__"
	Suffix = ".snap.json"
)

// Path returns the sidecar location for sourcePath.
func Path(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), Dir, filepath.Base(sourcePath)+Suffix)
}

// Store reads and writes sidecar records. The zero value uses the real
// file system.
type Store struct {
	// ReadFile and WriteFile default to os.ReadFile and os.WriteFile.
	ReadFile  func(name string) ([]byte, error)
	WriteFile func(name string, data []byte, perm os.FileMode) error
	MkdirAll  func(path string, perm os.FileMode) error
}

// Get returns the entry name recorded for sourcePath. A missing or corrupt
// sidecar and a missing entry all read as not found.
func (s *Store) Get(sourcePath, name string) (string, bool) {
	record := s.load(Path(sourcePath))
	v, ok := record[name]
	return v, ok
}

// Update sets name to value in the sidecar of sourcePath, keeping the other
// entries. A corrupt sidecar is replaced.
func (s *Store) Update(sourcePath, name, value string) error {
	path := Path(sourcePath)
	if err := s.mkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot: create %s: %w", filepath.Dir(path), err)
	}
	record := s.load(path)
	if record == nil {
		record = make(map[string]string)
	}
	record[name] = value

	data, err := encode(record)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	if err := s.writeFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

func (s *Store) load(path string) map[string]string {
	read := os.ReadFile
	if s != nil && s.ReadFile != nil {
		read = s.ReadFile
	}
	data, err := read(path)
	if err != nil {
		return nil
	}
	var record map[string]string
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	return record
}

func (s *Store) writeFile(path string, data []byte, perm os.FileMode) error {
	if s != nil && s.WriteFile != nil {
		return s.WriteFile(path, data, perm)
	}
	return os.WriteFile(path, data, perm)
}

func (s *Store) mkdirAll(path string, perm os.FileMode) error {
	if s != nil && s.MkdirAll != nil {
		return s.MkdirAll(path, perm)
	}
	return os.MkdirAll(path, perm)
}

// encode renders the record with 2-space indentation and sorted keys.
// Type strings routinely contain <, > and &, which stay unescaped.
func encode(record map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
