package validators

import "strings"

// SanitizeString trims input and cuts it to maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return trimmed
}
