package classifier

import (
	"strings"
	"unicode"
)

// IsSubstantive reports whether text is worth sending to a classifier.
// Empty and very short text, bare numbers, punctuation runs and a single
// short token are not.
func IsSubstantive(text string, minLen int) bool {
	trimmed := strings.TrimSpace(text)
	n := len([]rune(trimmed))
	if n == 0 || n < minLen {
		return false
	}
	if allRunes(trimmed, unicode.IsDigit) {
		return false
	}
	if allRunes(trimmed, isPunct) {
		return false
	}
	if len(strings.Fields(trimmed)) == 1 && n <= minLen {
		return false
	}
	return true
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}
