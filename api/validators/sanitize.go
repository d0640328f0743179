package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims surrounding space and truncates to maxRunes without
// splitting a multi-byte character. maxRunes <= 0 means no limit.
func SanitizeString(input string, maxRunes int) string {
	s := strings.TrimSpace(input)
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	for i := range s {
		if maxRunes == 0 {
			return s[:i]
		}
		maxRunes--
	}
	return s
}
