package textseg_test

import (
	"errors"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"voicereel/internal/textseg"
)

func chunkTexts(chunks []textseg.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestSplitIntoChunks(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		maxChars int
		want     []string
	}{
		{
			name:     "packs sentences greedily",
			text:     "Hello world. How are you? I am fine.",
			maxChars: 30,
			want:     []string{"Hello world. How are you?", "I am fine."},
		},
		{
			name:     "oversized sentence stays whole",
			text:     "Short one. This sentence is much longer than the limit allows.",
			maxChars: 20,
			want:     []string{"Short one.", "This sentence is much longer than the limit allows."},
		},
		{
			name:     "full width terminators split without spaces",
			text:     "今日は晴れです。明日は雨です。",
			maxChars: 8,
			want:     []string{"今日は晴れです。", "明日は雨です。"},
		},
		{
			name:     "full width sentences pack without separator",
			text:     "今日は晴れです。明日は雨です。",
			maxChars: 100,
			want:     []string{"今日は晴れです。明日は雨です。"},
		},
		{
			name:     "decimal point is not a boundary",
			text:     "Pi is 3.14 today. Yes.",
			maxChars: 17,
			want:     []string{"Pi is 3.14 today.", "Yes."},
		},
		{
			name:     "closing quote stays with its sentence",
			text:     `He said "Stop." Then left.`,
			maxChars: 16,
			want:     []string{`He said "Stop."`, "Then left."},
		},
		{
			name:     "whitespace is normalized",
			text:     "  One.\n\n Two.\tThree  ",
			maxChars: 100,
			want:     []string{"One. Two. Three"},
		},
		{
			name:     "text without terminators is one sentence",
			text:     "no punctuation at all",
			maxChars: 5,
			want:     []string{"no punctuation at all"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := textseg.SplitIntoChunks(tc.text, tc.maxChars)
			if err != nil {
				t.Fatalf("SplitIntoChunks failed: %v", err)
			}
			got := chunkTexts(chunks)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("chunks = %q, want %q", got, tc.want)
			}
			for i, c := range chunks {
				if c.Index != i {
					t.Fatalf("chunk %d has index %d", i, c.Index)
				}
				if c.Chars != utf8.RuneCountInString(c.Text) {
					t.Fatalf("chunk %d chars = %d, want %d", i, c.Chars, utf8.RuneCountInString(c.Text))
				}
			}
		})
	}
}

func TestSplitIntoChunksEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n\t "} {
		chunks, err := textseg.SplitIntoChunks(text, 10)
		if err != nil {
			t.Fatalf("SplitIntoChunks failed: %v", err)
		}
		if len(chunks) != 0 {
			t.Fatalf("expected no chunks for %q, got %v", text, chunks)
		}
	}
}

func TestSplitIntoChunksRejectsNonPositiveLimit(t *testing.T) {
	if _, err := textseg.SplitIntoChunks("Hello.", 0); !errors.Is(err, textseg.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestSplitIntoChunksPreservesContentAndLimit(t *testing.T) {
	text := strings.Repeat("The rain in Spain falls mainly on the plain. Does it? It does! ", 40) +
		"雨が降っています。本当ですか？はい！"
	for _, limit := range []int{15, 50, 120, 1000} {
		chunks, err := textseg.SplitIntoChunks(text, limit)
		if err != nil {
			t.Fatalf("SplitIntoChunks failed: %v", err)
		}
		var joined strings.Builder
		for _, c := range chunks {
			if c.Text == "" {
				t.Fatalf("limit %d produced an empty chunk", limit)
			}
			// Any chunk over the limit must be a single sentence.
			if c.Chars > limit && strings.ContainsAny(strings.TrimRight(c.Text, ".!?。！？"), "!?。！？") {
				t.Fatalf("limit %d: chunk %q exceeds limit with more than one sentence", limit, c.Text)
			}
			joined.WriteString(c.Text)
		}
		if stripSpace(joined.String()) != stripSpace(text) {
			t.Fatalf("limit %d: chunks do not reassemble the source text", limit)
		}
	}
}
