package notify

import "github.com/gen2brain/beeep"

// Notify shows a desktop notification. Fire-and-forget.
func Notify(title, message string) {
	_ = beeep.Notify(title, message, "")
}

// Preview returns the first 100 runes of s, with "…" appended if truncated.
// Keeps notification bodies readable for long transcripts.
func Preview(s string) string {
	runes := []rune(s)
	if len(runes) <= 100 {
		return s
	}
	return string(runes[:100]) + "…"
}
