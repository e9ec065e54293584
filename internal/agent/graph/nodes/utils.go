package nodes

import (
	"strings"
	"unicode/utf8"
)

// Project detail is accepted once a reply is at least this long.
const (
	projectDetailMinWords = 6
	projectDetailMinRunes = 40
	projectDetailMaxTurns = 2
)

// ===== Small helpers to keep handlers simple/readable =====
func wordCount(s string) int {
	return len(strings.Fields(s))
}

func detailedEnough(s string) bool {
	s = strings.TrimSpace(s)
	return wordCount(s) >= projectDetailMinWords || utf8.RuneCountInString(s) >= projectDetailMinRunes
}

func mentions(text, stem string) bool {
	return strings.Contains(strings.ToLower(text), stem)
}
