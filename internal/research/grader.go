package research

import (
	"context"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/provider"
)

// OnParseFailure is the score assigned when the grading reply carries no
// number or the completion call fails.
const OnParseFailure = 0.5

// GradeOutcome records which path produced a score.
type GradeOutcome string

const (
	GradeParsed          GradeOutcome = "parsed"
	GradeNoNumber        GradeOutcome = "no_number"
	GradeCompletionError GradeOutcome = "completion_error"
)

var scorePattern = regexp.MustCompile(`\d+\.?\d*`)

// Grader scores page relevance with a completion service.
type Grader struct {
	llm    provider.CompletionService
	logger *zap.Logger
}

func NewGrader(llm provider.CompletionService, logger *zap.Logger) *Grader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grader{llm: llm, logger: logger}
}

// Grade returns the relevance of content to query in [0,1]. It never fails.
func (g *Grader) Grade(ctx context.Context, content, query string) float64 {
	score, _ := g.GradeDetailed(ctx, content, query)
	return score
}

// GradeDetailed is Grade plus the outcome that produced the score.
func (g *Grader) GradeDetailed(ctx context.Context, content, query string) (float64, GradeOutcome) {
	reply, err := g.llm.Complete(ctx, gradingPrompt(content, query))
	if err != nil {
		g.logger.Warn("grading failed, using fallback score", zap.Error(err), zap.Float64("score", OnParseFailure))
		return OnParseFailure, GradeCompletionError
	}
	score, ok := ParseScore(reply)
	if !ok {
		g.logger.Warn("grading reply carried no number, using fallback score",
			zap.String("reply", reply), zap.Float64("score", OnParseFailure))
		return OnParseFailure, GradeNoNumber
	}
	return score, GradeParsed
}

// ParseScore extracts the first decimal number in reply and clamps it to [0,1].
func ParseScore(reply string) (float64, bool) {
	match := scorePattern.FindString(reply)
	if match == "" {
		return 0, false
	}
	// Out-of-range values come back as ±Inf with ErrRange and clamp below.
	score, err := strconv.ParseFloat(match, 64)
	if err != nil && !isRangeErr(err) {
		return 0, false
	}
	return clamp01(score), true
}

func isRangeErr(err error) bool {
	numErr, ok := err.(*strconv.NumError)
	return ok && numErr.Err == strconv.ErrRange
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
