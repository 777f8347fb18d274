package textutil

import (
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace
// and never starts with a dot.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimLeft(strings.TrimSpace(fileNameReplacer.Replace(name)), ". ")
}

// ArtifactName derives an artifact file name from a title: the sanitized
// title with ext replacing any extension it already carries. It returns ""
// when nothing usable remains.
func ArtifactName(title, ext string) string {
	stem := SanitizeFileName(title)
	if current := filepath.Ext(stem); current != "" && strings.EqualFold(current, ext) {
		stem = strings.TrimSuffix(stem, current)
	}
	stem = strings.TrimSpace(stem)
	if stem == "" {
		return ""
	}
	return stem + ext
}
