package project

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const maxTitleRunes = 50

// SafeTitle turns a video title into a directory-safe name. Letters (any
// script), digits, '-' and '_' are kept; spaces become '_'.
func SafeTitle(title string) string {
	folded := width.Fold.String(norm.NFKC.String(title))

	var b strings.Builder
	for _, r := range strings.TrimSpace(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	runes := []rune(strings.TrimRight(b.String(), "_"))
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}
	if len(runes) == 0 {
		return "video"
	}
	return string(runes)
}
