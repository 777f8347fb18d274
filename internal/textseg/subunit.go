package textseg

import (
	"strings"
	"unicode/utf8"

	"voicereel/internal/language"
)

// Mode selects how a chunk is broken into subtitle sub-units.
type Mode int

const (
	// ModeWords groups whitespace-separated words.
	ModeWords Mode = iota
	// ModeCharacters groups individual characters, for unspaced scripts.
	ModeCharacters
)

func (m Mode) String() string {
	if m == ModeCharacters {
		return "characters"
	}
	return "words"
}

// ModeFor picks the grouping mode for a subtitle language. An explicit
// override of "words" or "characters" wins; anything else uses the language.
func ModeFor(languageCode, override string) Mode {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "words":
		return ModeWords
	case "characters":
		return ModeCharacters
	}
	if language.GroupsByCharacter(languageCode) {
		return ModeCharacters
	}
	return ModeWords
}

// SubUnit is the text of one subtitle entry plus its timing weight.
type SubUnit struct {
	Text string
	// Chars weights the unit's share of its chunk's audio duration.
	Chars int
}

// SplitIntoSubUnits groups a chunk's words or characters into units of at most
// unitSize items, preserving order. Whitespace-only groups are dropped.
func SplitIntoSubUnits(chunkText string, unitSize int, mode Mode) ([]SubUnit, error) {
	if unitSize <= 0 {
		return nil, ErrInvalidLimit
	}
	trimmed := strings.TrimSpace(chunkText)
	if trimmed == "" {
		return nil, nil
	}

	var groups []string
	switch mode {
	case ModeCharacters:
		runes := []rune(trimmed)
		for i := 0; i < len(runes); i += unitSize {
			end := min(i+unitSize, len(runes))
			groups = append(groups, string(runes[i:end]))
		}
	default:
		words := strings.Fields(trimmed)
		for i := 0; i < len(words); i += unitSize {
			end := min(i+unitSize, len(words))
			groups = append(groups, strings.Join(words[i:end], " "))
		}
	}

	units := make([]SubUnit, 0, len(groups))
	for _, g := range groups {
		text := strings.TrimSpace(g)
		if text == "" {
			continue
		}
		units = append(units, SubUnit{Text: text, Chars: utf8.RuneCountInString(g)})
	}
	return units, nil
}

// TotalChars sums the weights of units.
func TotalChars(units []SubUnit) int {
	total := 0
	for _, u := range units {
		total += u.Chars
	}
	return total
}
