package expect

import (
	"path/filepath"
	"regexp"

	"fortio.org/safecast"

	"typedsql/internal/checker"
	"typedsql/internal/directive"
	"typedsql/internal/source"
)

// DefaultIgnore matches unused-declaration findings. Fixtures bind values
// only to assert on them, so these are noise. The first pattern is the
// TypeScript wording, the rest are go/types.
var DefaultIgnore = []*regexp.Regexp{
	regexp.MustCompile(`'.+' is declared but (never used|its value is never read).`),
	regexp.MustCompile(`declared and not used`),
	regexp.MustCompile(`declared but not used`),
	regexp.MustCompile(`imported and not used`),
}

// filterIgnored drops diagnostics matching any pattern. Dropped diagnostics
// take no part in reconciliation, so they cannot satisfy an $ExpectError.
func filterIgnored(diags []checker.Diagnostic, patterns []*regexp.Regexp) []checker.Diagnostic {
	out := diags[:0:0]
	for _, d := range diags {
		if !ignored(d.Message, patterns) {
			out = append(out, d)
		}
	}
	return out
}

func ignored(msg string, patterns []*regexp.Regexp) bool {
	for _, rx := range patterns {
		if rx.MatchString(msg) {
			return true
		}
	}
	return false
}

// reconcile splits diagnostics into the ones to report and the
// $ExpectError lines that received none. Diagnostics on expected lines of
// this file are consumed; diagnostics of other files are always reported.
func reconcile(file *source.File, path string, diags []checker.Diagnostic, set *directive.Set) (unexpected []checker.Diagnostic, missing []int) {
	seen := make(map[int]struct{})
	for _, d := range diags {
		if !sameFile(d.File, path) {
			unexpected = append(unexpected, d)
			continue
		}
		line := file.LineOf(clampOffset(file, d.Start))
		seen[line] = struct{}{}
		if !set.ExpectsError(line) {
			unexpected = append(unexpected, d)
		}
	}
	for _, line := range set.ErrorLines {
		if _, ok := seen[line]; !ok {
			missing = append(missing, line)
		}
	}
	return unexpected, missing
}

func sameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func clampOffset(file *source.File, off int) uint32 {
	v, err := safecast.Conv[uint32](max(0, min(off, len(file.Content))))
	if err != nil {
		return 0
	}
	return v
}
