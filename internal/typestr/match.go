// Package typestr compares rendered type strings with expected ones.
package typestr

import (
	"regexp"
	"strings"
)

var (
	readonlyWordRx      = regexp.MustCompile(`\breadonly\b`)
	readonlyArrayWordRx = regexp.MustCompile(`\bReadonlyArray\b`)
	spaceRunRx          = regexp.MustCompile(`[\n ]+`)
)

const (
	readonlyArrayOpen = "ReadonlyArray<"
	readonlyModifier  = "readonly "
)

// Match reports whether actual satisfies an expected type string written in
// a line assertion: exact equality, or the ReadonlyArray structural rule.
func Match(actual, expected string) bool {
	return actual == expected || MatchReadonlyArray(actual, expected)
}

// MatchReadonlyArray treats `ReadonlyArray<T>` in expected and `readonly T[]`
// in actual as the same type at any nesting depth. Both strings must be
// consumed completely.
//
//	A<ReadonlyArray<B<ReadonlyArray<C>>>>
//	A<readonly B<readonly C[]>[]>
func MatchReadonlyArray(actual, expected string) bool {
	if !readonlyWordRx.MatchString(actual) || !readonlyArrayWordRx.MatchString(expected) {
		return false
	}

	e, a, depth := 0, 0, 0
	for e < len(expected) && a < len(actual) {
		if expected[e] == actual[a] {
			e++
			a++
			continue
		}
		// closing a readonly array
		if depth > 0 && expected[e] == '>' && strings.HasPrefix(actual[a:], "[]") {
			depth--
			e++
			a += 2
			continue
		}
		// opening a readonly array
		if atWord(expected, e, readonlyArrayOpen) && atWord(actual, a, readonlyModifier) {
			depth++
			e += len(readonlyArrayOpen)
			a += len(readonlyModifier)
			continue
		}
		return false
	}
	return e == len(expected) && a == len(actual) && depth == 0
}

// MatchModuloWhitespace compares after collapsing runs of spaces and
// newlines into one space and trimming both ends.
func MatchModuloWhitespace(actual, expected string) bool {
	return normalize(actual) == normalize(expected)
}

func normalize(s string) string {
	return strings.TrimSpace(spaceRunRx.ReplaceAllString(s, " "))
}

// atWord reports whether word occurs in s at i on a word boundary.
func atWord(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	return i == 0 || !isWordByte(s[i-1])
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
