package helpers

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Thousands formats n with comma group separators (300000 -> "300,000").
func Thousands(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n < 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
