package textseg

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidLimit is returned when a chunk or unit size is not positive.
var ErrInvalidLimit = errors.New("textseg: limit must be positive")

// Chunk is a contiguous span of source text sent to the provider in one request.
type Chunk struct {
	Index int
	Text  string
	// Chars is the length of Text in code points, the provider's billing unit.
	Chars int
}

type sentence struct {
	text string
	// sep is the whitespace that preceded the sentence in the normalized text.
	sep string
}

// SplitIntoChunks normalizes whitespace in text and packs whole sentences into
// chunks of at most maxChars code points. A single sentence longer than
// maxChars becomes its own chunk rather than being cut mid-sentence. Empty
// input yields no chunks.
func SplitIntoChunks(text string, maxChars int) ([]Chunk, error) {
	if maxChars <= 0 {
		return nil, ErrInvalidLimit
	}
	normalized := NormalizeWhitespace(text)
	if normalized == "" {
		return nil, nil
	}

	var (
		chunks  []Chunk
		current strings.Builder
		curLen  int
	)
	flush := func() {
		if curLen == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: current.String(), Chars: curLen})
		current.Reset()
		curLen = 0
	}

	for _, s := range splitSentences(normalized) {
		size := utf8.RuneCountInString(s.text)
		if curLen > 0 && curLen+len(s.sep)+size > maxChars {
			flush()
		}
		if curLen > 0 {
			current.WriteString(s.sep)
			curLen += len(s.sep)
		}
		current.WriteString(s.text)
		curLen += size
	}
	flush()
	return chunks, nil
}

// NormalizeWhitespace collapses every whitespace run to a single space and trims the ends.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences breaks normalized text after sentence terminators. Latin
// terminators only end a sentence before a space or the end of text, so
// "3.14" and "e.g.x" stay intact; full-width terminators always end one.
func splitSentences(text string) []sentence {
	runes := []rune(text)
	var (
		out   []sentence
		start int
		sep   string
	)
	for i := 0; i < len(runes); {
		if !isTerminator(runes[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(runes) && (isTerminator(runes[j]) || isCloser(runes[j])) {
			j++
		}
		if j == len(runes) || runes[j] == ' ' || hasFullWidthTerminator(runes[i:j]) {
			out = append(out, sentence{text: string(runes[start:j]), sep: sep})
			sep = ""
			if j < len(runes) && runes[j] == ' ' {
				sep = " "
				j++
			}
			start = j
		}
		i = j
	}
	if start < len(runes) {
		out = append(out, sentence{text: string(runes[start:]), sep: sep})
	}
	return out
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isFullWidthTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func hasFullWidthTerminator(rs []rune) bool {
	for _, r := range rs {
		if isFullWidthTerminator(r) {
			return true
		}
	}
	return false
}

// isCloser matches quotes and brackets that belong to the sentence they close.
func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』', '）', '》':
		return true
	}
	return false
}
