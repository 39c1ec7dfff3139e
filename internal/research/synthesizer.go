package research

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/provider"
)

// TokenSoftBudget is the estimated prompt size above which a warning is logged.
const TokenSoftBudget = 800000

// ErrSynthesis wraps a completion failure while writing the answer.
var ErrSynthesis = errors.New("answer synthesis failed")

// Synthesizer writes the cited answer from filtered pages.
type Synthesizer struct {
	llm         provider.CompletionService
	minContent  int
	maxContent  int
	institution string
	logger      *zap.Logger
}

func NewSynthesizer(llm provider.CompletionService, cfg config.PipelineConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	institution := cfg.Institution
	if institution == "" {
		institution = "institution"
	}
	return &Synthesizer{
		llm:         llm,
		minContent:  cfg.MinContentLength,
		maxContent:  cfg.MaxContentLength,
		institution: institution,
		logger:      logger,
	}
}

// SynthesisPrompt is the assembled prompt plus the figures logged about it.
type SynthesisPrompt struct {
	Text            string
	SourcesIncluded int
	SourcesSkipped  int
	ContentChars    int
	EstimatedTokens int
}

// Synthesize builds the prompt and returns the completion verbatim. combined
// is only measured for logging.
func (s *Synthesizer) Synthesize(ctx context.Context, combined, query string, sources []models.GradedPage) (string, error) {
	s.logger.Info("generating answer from filtered content",
		zap.Int("combined_chars", utf8.RuneCountInString(combined)),
		zap.Int("sources", len(sources)))

	prompt := s.BuildPrompt(query, sources)
	if prompt.EstimatedTokens > TokenSoftBudget {
		s.logger.Warn("large synthesis prompt, may hit model limits",
			zap.Int("estimated_tokens", prompt.EstimatedTokens),
			zap.Int("content_chars", prompt.ContentChars))
	} else {
		s.logger.Info("synthesis prompt size",
			zap.Int("estimated_tokens", prompt.EstimatedTokens),
			zap.Int("content_chars", prompt.ContentChars))
	}

	answer, err := s.llm.Complete(ctx, prompt.Text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	return answer, nil
}

// BuildPrompt deduplicates sources by SourceKey, windows their content and
// assembles the numbered source map and content block. Source numbers follow
// the deduplicated order, so sources dropped for being too short leave gaps.
func (s *Synthesizer) BuildPrompt(query string, sources []models.GradedPage) SynthesisPrompt {
	unique := make([]models.GradedPage, 0, len(sources))
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		key := helpers.SourceKey(src.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, src)
	}

	var (
		blocks  []string
		mapping []string
		out     SynthesisPrompt
	)
	for i, src := range unique {
		idx := i + 1
		original := utf8.RuneCountInString(src.Content)
		windowed := WindowContent(src.Content, SynthesisWindow)

		if original < s.minContent {
			s.logger.Debug("source skipped, below minimum length",
				zap.Int("source", idx),
				zap.String("chars", helpers.Thousands(original)),
				zap.String("min", helpers.Thousands(s.minContent)))
			out.SourcesSkipped++
			continue
		}
		if original > s.maxContent {
			s.logger.Info("source truncated",
				zap.Int("source", idx),
				zap.String("from", helpers.Thousands(original)),
				zap.String("to", helpers.Thousands(utf8.RuneCountInString(windowed))))
		}

		blocks = append(blocks, fmt.Sprintf("=== SOURCE %d: %s (Relevance: %s) ===\nURL: %s\nContent: %s\n",
			idx, src.Title, formatScore(src.RelevanceScore), src.URL, windowed))
		mapping = append(mapping, fmt.Sprintf("[Source %d]: %s", idx, src.URL))
		out.SourcesIncluded++
	}

	contentBlock := strings.Join(blocks, "\n")
	out.ContentChars = utf8.RuneCountInString(contentBlock)
	out.EstimatedTokens = out.ContentChars / 4
	out.Text = synthesisPrompt(s.institution, query, strings.Join(mapping, "\n"), contentBlock)
	return out
}

// formatScore renders a score in its shortest form, keeping one decimal for
// whole numbers (1 -> "1.0", 0.8 -> "0.8", 0.65 -> "0.65").
func formatScore(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
