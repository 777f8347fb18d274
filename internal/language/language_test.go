package language

import (
	"slices"
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"jpn", "ja"},
		{"chi", "zh"},
		{"fre", "fr"},
		{"japanese", "ja"},
		{"Korean", "ko"},
		{"ja-JP", "ja"},
		{"zh-Hant-TW", "zh"},
		{"pt-BR", "pt"},
		{"xx", "xx"},
		{"", ""},
		{"not a language", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGroupsByCharacter(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"ja", true},
		{"zh", true},
		{"ko", true},
		{"zh-CN", true},
		{"th", true},
		{"en", false},
		{"vi", false},
		{"de", false},
		{"", false},
		{"klingon", false},
	}
	for _, tt := range tests {
		if got := GroupsByCharacter(tt.input); got != tt.expected {
			t.Errorf("GroupsByCharacter(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("es"); got != "Spanish" {
		t.Fatalf("DisplayName(es) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("xx"); got != "XX" {
		t.Fatalf("DisplayName(xx) = %q", got)
	}
}

func TestKnownIncludesDocumentedModes(t *testing.T) {
	known := Known()
	for _, code := range []string{"en", "ja", "zh", "ko", "vi", "fr", "de", "it", "ru", "es"} {
		if !slices.Contains(known, code) {
			t.Fatalf("expected %s in %v", code, known)
		}
	}
}
