package source

import (
	"path/filepath"
)

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32+1)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

// lineOf returns the 0-based line containing off.
func lineOf(lineIdx []uint32, off uint32) int {
	// бинпоиск: количество '\n' строго левее off
	lo, hi := 0, len(lineIdx)
	for lo < hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	line := lineOf(lineIdx, off)
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1 // следующая строка начинается после \n предыдущей
	}
	return LineCol{Line: uint32(line + 1), Col: off - startOff + 1}
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}
