package util

import "unicode/utf8"

// TruncateBytes shortens s to at most max bytes without splitting a UTF-8
// sequence. Invalid bytes at the cut point are dropped along with the
// partial rune.
func TruncateBytes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
