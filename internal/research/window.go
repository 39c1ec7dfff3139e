package research

import (
	"fmt"
	"unicode/utf8"

	"github.com/mohammad-safakhou/askcampus/internal/helpers"
)

// SynthesisWindow is the per-source character bound applied before synthesis.
const SynthesisWindow = 200000

// WindowContent bounds content to roughly maxChars characters. Content that
// fits is returned unchanged; otherwise the first 70% and last 30% of the
// budget are kept around a marker reporting both lengths. Lengths count runes.
func WindowContent(content string, maxChars int) string {
	if maxChars <= 0 {
		return content
	}
	total := utf8.RuneCountInString(content)
	if total <= maxChars {
		return content
	}
	runes := []rune(content)
	head := maxChars * 7 / 10
	tail := maxChars * 3 / 10
	marker := fmt.Sprintf("\n\n... [Content truncated - original: %s chars, showing: %s chars] ...\n\n",
		helpers.Thousands(total), helpers.Thousands(maxChars))
	return string(runes[:head]) + marker + string(runes[total-tail:])
}
