package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
	// unspaced scripts are grouped per character rather than per word.
	unspaced bool
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}, false},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}, true},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}, true},
	{"ko", "kor", "", "Korean", []string{"korean"}, true},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}, false},
	{"fr", "fra", "fre", "French", []string{"french"}, false},
	{"de", "deu", "ger", "German", []string{"german"}, false},
	{"it", "ita", "", "Italian", []string{"italian"}, false},
	{"ru", "rus", "", "Russian", []string{"russian"}, false},
	{"es", "spa", "", "Spanish", []string{"spanish"}, false},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}, false},
	{"th", "tha", "", "Thai", []string{"thai"}, true},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	if base := baseOf(code); base != "" {
		return byCode2[base]
	}
	return nil
}

// baseOf resolves a BCP 47 tag such as "ja-JP" or "zh-Hant-TW" to its base language.
func baseOf(code string) string {
	tag, err := xlang.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == xlang.No {
		return ""
	}
	return base.String()
}

// ToISO2 converts any recognized language code, BCP 47 tag, or word to ISO 639-1.
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	if base := baseOf(code); len(base) == 2 {
		return base
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// GroupsByCharacter reports whether subtitle units for the language are built
// from individual characters. Japanese, Chinese, Korean and Thai do; unknown
// languages fall back to word grouping.
func GroupsByCharacter(code string) bool {
	if e := lookup(code); e != nil {
		return e.unspaced
	}
	return false
}

// Known returns the ISO 639-1 codes with first-class support, in display order.
func Known() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code2)
	}
	return out
}
