// Package text provides small rune-aware string helpers shared by the
// dedup and notifier packages.
package text

import (
	"strings"
	"unicode"
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
//	CountRunes("hello")  // 5
//	CountRunes("매일경제") // 4
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate cuts s to at most limit runes, appending suffix when anything was
// cut. A non-positive limit returns s unchanged.
func Truncate(s string, limit int, suffix string) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + suffix
}

// CollapseSpace trims s and replaces every run of Unicode whitespace with a
// single ASCII space.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
