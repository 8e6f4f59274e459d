package source

import (
	"path/filepath"
	"strings"
)

// AbsolutePath resolves p against the working directory.
func AbsolutePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return normalizePath(abs), nil
}

// RelativePath returns p relative to baseDir. Paths outside baseDir are
// returned absolute rather than as a chain of "../".
func RelativePath(p, baseDir string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return normalizePath(abs), nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(abs), nil
	}
	return normalizePath(rel), nil
}

// BaseName returns the last element of p.
func BaseName(p string) string {
	return filepath.Base(p)
}
