package credentials

import (
	"fmt"
	"strings"
)

const visiblePrefix = 6

// Mask hides all but the first few characters of an API key.
func Mask(key string) string {
	runes := []rune(strings.TrimSpace(key))
	if len(runes) <= visiblePrefix {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:visiblePrefix]) + "…"
}

// Label names a credential by 1-based position and masked key, safe for logs.
func Label(id int, key string) string {
	return fmt.Sprintf("#%d (%s)", id+1, Mask(key))
}
