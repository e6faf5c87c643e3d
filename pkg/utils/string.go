package utils

import "unicode/utf8"

// Truncate is a simple string truncate
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Clip cuts a string to at most maxLen bytes with no ellipsis, backing off
// to the previous rune boundary. Archived memory content carries hard byte
// caps, so the cut must not add length.
func Clip(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
