package helpers

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/askcampus/models"
)

type sourceConfig struct {
	maxTitle  int
	wordCount bool
	indent    string
}

// SourceOption configures source formatting.
type SourceOption func(*sourceConfig)

// WithMaxTitleLength truncates titles to n runes (default unlimited).
func WithMaxTitleLength(n int) SourceOption {
	return func(cfg *sourceConfig) {
		if n > 0 {
			cfg.maxTitle = n
		}
	}
}

// WithoutWordCount omits the "(N words)" line.
func WithoutWordCount() SourceOption {
	return func(cfg *sourceConfig) { cfg.wordCount = false }
}

// FormatSource renders a numbered source in the report layout:
//
//	[1] Parking Permits (Relevance: 0.900)
//	    https://transportation.ncsu.edu/permits
//	    (1,204 words)
func FormatSource(index int, s models.Source, opts ...SourceOption) string {
	cfg := sourceConfig{wordCount: true, indent: "    "}
	for _, opt := range opts {
		opt(&cfg)
	}

	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = "Untitled"
	}
	if cfg.maxTitle > 0 {
		title = TruncateRunes(title, cfg.maxTitle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s (Relevance: %.3f)\n", index, title, s.RelevanceScore)
	fmt.Fprintf(&b, "%s%s", cfg.indent, strings.TrimSpace(s.URL))
	if cfg.wordCount {
		fmt.Fprintf(&b, "\n%s(%s words)", cfg.indent, Thousands(s.WordCount))
	}
	return b.String()
}

// FormatSources renders a collection of sources numbered from 1.
func FormatSources(sources []models.Source, opts ...SourceOption) []string {
	if len(sources) == 0 {
		return nil
	}
	out := make([]string, 0, len(sources))
	for i, s := range sources {
		out = append(out, FormatSource(i+1, s, opts...))
	}
	return out
}
