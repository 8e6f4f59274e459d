package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // driver events only
	LevelPhase               // driver + per-file boundaries
	LevelDetail              // passes inside a file
	LevelDebug               // everything including single assertions
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope pass at this level. Level n
// admits every scope numbered n or lower.
func (l Level) ShouldEmit(scope Scope) bool {
	return scope != 0 && scope <= Scope(l)
}
