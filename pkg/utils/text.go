package utils

// Truncate shortens s to at most max runes, appending "..." when cut.
// Rune-safe so Devanagari text is never split mid-character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
