// Package dedup drops articles that repeat an earlier one, either exactly or
// by a near-identical title.
package dedup

import (
	"strings"
	"unicode"

	"newsbot/internal/domain/entity"
	"newsbot/internal/utils/text"
)

// epsilon absorbs floating point error when an overlap sits on the threshold.
const epsilon = 1e-9

// DefaultThreshold is the overlap at which two titles count as the same story.
const DefaultThreshold = 0.75

// Key is the exact-duplicate key: the lowercased, whitespace-collapsed title
// joined to the link.
func Key(a entity.Article) string {
	return strings.ToLower(text.CollapseSpace(a.Title)) + "|" + a.Link
}

// TokenSet is the set of title tokens used for near-duplicate detection.
type TokenSet map[string]struct{}

// Tokenize splits title on anything that is not a letter or digit, lowercases
// the pieces and keeps those longer than one rune.
func Tokenize(title string) TokenSet {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(TokenSet, len(fields))
	for _, f := range fields {
		if text.CountRunes(f) > 1 {
			set[f] = struct{}{}
		}
	}
	return set
}

// Overlap returns |a∩b| / max(|a|,|b|). It is 0 when either set is empty.
func Overlap(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(large))
}

// Similar reports whether a and b overlap at or above threshold. Empty sets
// never match.
func Similar(a, b TokenSet, threshold float64) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return Overlap(a, b)+epsilon >= threshold
}
