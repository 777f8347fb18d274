package textseg

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WrapForDisplay fits text to a single line of at most maxWidth terminal
// columns. Words are added greedily and the line stops at the first word that
// would overflow. A first word wider than the line is truncated. A maxWidth
// of zero or less returns text unchanged.
func WrapForDisplay(text string, maxWidth int) string {
	text = strings.TrimSpace(text)
	if maxWidth <= 0 || runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	words := strings.Fields(text)
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if runewidth.StringWidth(candidate) > maxWidth {
			break
		}
		line = candidate
	}
	if line == "" {
		return runewidth.Truncate(words[0], maxWidth, "")
	}
	return line
}
