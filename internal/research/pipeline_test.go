package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/models"
	mock_provider "github.com/mohammad-safakhou/askcampus/provider/mock"
)

func TestDedupCandidates(t *testing.T) {
	t.Parallel()
	a := models.CandidateResult{Title: "A", URL: "https://ncsu.edu/a"}
	b := models.CandidateResult{Title: "B", URL: "https://ncsu.edu/b"}
	aDup := models.CandidateResult{Title: "A again", URL: "HTTP://NCSU.edu/a/?utm_source=x#top"}
	c := models.CandidateResult{Title: "C", URL: "https://ncsu.edu/c"}

	unique, dups := DedupCandidates([]models.CandidateResult{a, b, aDup, c})
	if dups != 1 {
		t.Fatalf("expected 1 duplicate, got %d", dups)
	}
	want := []models.CandidateResult{a, b, c}
	if len(unique) != len(want) {
		t.Fatalf("expected %d unique, got %d", len(want), len(unique))
	}
	for i := range want {
		if unique[i] != want[i] {
			t.Fatalf("unique[%d] = %+v, want %+v", i, unique[i], want[i])
		}
	}

	if out, n := DedupCandidates(nil); len(out) != 0 || n != 0 {
		t.Fatalf("expected empty dedup for nil input")
	}
}

func TestWindowContent(t *testing.T) {
	t.Parallel()

	small := strings.Repeat("a", SynthesisWindow)
	if got := WindowContent(small, SynthesisWindow); got != small {
		t.Fatalf("content at the bound must be unchanged")
	}
	if WindowContent("", SynthesisWindow) != "" {
		t.Fatalf("empty content must stay empty")
	}

	head := strings.Repeat("h", 140000)
	middle := strings.Repeat("m", 100000)
	tail := strings.Repeat("t", 60000)
	got := WindowContent(head+middle+tail, SynthesisWindow)
	if !strings.HasPrefix(got, head) {
		t.Fatalf("expected first 140,000 chars to be kept")
	}
	if !strings.HasSuffix(got, tail) {
		t.Fatalf("expected last 60,000 chars to be kept")
	}
	marker := "\n\n... [Content truncated - original: 300,000 chars, showing: 200,000 chars] ...\n\n"
	if got != head+marker+tail {
		t.Fatalf("unexpected window layout around marker")
	}
}

func TestWindowContentCountsRunes(t *testing.T) {
	t.Parallel()
	content := strings.Repeat("é", 10)
	if got := WindowContent(content, 10); got != content {
		t.Fatalf("10 runes fit a 10 char window")
	}
	got := WindowContent(strings.Repeat("é", 20), 10)
	if !strings.HasPrefix(got, strings.Repeat("é", 7)+"\n\n...") || !strings.HasSuffix(got, "...\n\n"+strings.Repeat("é", 3)) {
		t.Fatalf("unexpected rune window: %q", got)
	}
}

func TestParseScore(t *testing.T) {
	t.Parallel()
	cases := []struct {
		reply string
		want  float64
		ok    bool
	}{
		{"0.85", 0.85, true},
		{"Score: 0.7 out of 1", 0.7, true},
		{"1.75", 1.0, true},
		{"7", 1.0, true},
		{"0.", 0, true},
		{"The relevance is 0.4.", 0.4, true},
		{"-0.3", 0.3, true},
		{strings.Repeat("9", 400), 1.0, true},
		{"not a number", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseScore(tc.reply)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseScore(%q) = (%v, %v), want (%v, %v)", tc.reply, got, ok, tc.want, tc.ok)
		}
	}
}

func TestGraderFallbacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cases := []struct {
		name    string
		llm     replyLLM
		want    float64
		outcome GradeOutcome
	}{
		{"parsed", replyLLM{reply: "0.9"}, 0.9, GradeParsed},
		{"clamped", replyLLM{reply: "1.75"}, 1.0, GradeParsed},
		{"no number", replyLLM{reply: "not a number"}, OnParseFailure, GradeNoNumber},
		{"completion error", replyLLM{err: errors.New("timeout")}, OnParseFailure, GradeCompletionError},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := NewGrader(tc.llm, nil)
			score, outcome := g.GradeDetailed(ctx, "content", "query")
			if score != tc.want || outcome != tc.outcome {
				t.Fatalf("GradeDetailed = (%v, %s), want (%v, %s)", score, outcome, tc.want, tc.outcome)
			}
			if g.Grade(ctx, "content", "query") != tc.want {
				t.Fatalf("Grade disagrees with GradeDetailed")
			}
		})
	}
}

func graded(scores ...float64) []models.GradedPage {
	out := make([]models.GradedPage, 0, len(scores))
	for i, s := range scores {
		out = append(out, models.GradedPage{
			ExtractedPage:  models.ExtractedPage{Title: fmt.Sprintf("p%d", i), URL: fmt.Sprintf("https://ncsu.edu/%d", i)},
			RelevanceScore: s,
		})
	}
	return out
}

func TestFilterByThreshold(t *testing.T) {
	t.Parallel()

	kept, fallback := FilterByThreshold(graded(0.9, 0.6, 0.59), 0.6)
	if fallback || len(kept) != 2 || kept[0].Title != "p0" || kept[1].Title != "p1" {
		t.Fatalf("unexpected filter result: %+v (fallback=%v)", kept, fallback)
	}

	kept, fallback = FilterByThreshold(graded(0.2, 0.4, 0.3), 0.6)
	if !fallback || len(kept) != 1 || kept[0].RelevanceScore != 0.4 {
		t.Fatalf("expected fallback to the 0.4 page, got %+v", kept)
	}

	kept, _ = FilterByThreshold(graded(0.3, 0.5, 0.5), 0.9)
	if len(kept) != 1 || kept[0].Title != "p1" {
		t.Fatalf("ties must keep the first best page, got %+v", kept)
	}

	kept, fallback = FilterByThreshold(nil, 0.6)
	if len(kept) != 0 || fallback {
		t.Fatalf("empty input must produce empty output")
	}
}

func TestSynthesizerBuildPrompt(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultPipelineConfig()
	cfg.MinContentLength = 10
	cfg.MaxContentLength = 20
	s := NewSynthesizer(replyLLM{}, cfg, nil)

	sources := []models.GradedPage{
		{ExtractedPage: models.ExtractedPage{Title: "Permits", URL: "https://ncsu.edu/permits/", Content: "Permits cost $200 per year."}, RelevanceScore: 0.8},
		{ExtractedPage: models.ExtractedPage{Title: "Permits dup", URL: "https://ncsu.edu/permits", Content: "duplicate content here"}, RelevanceScore: 0.7},
		{ExtractedPage: models.ExtractedPage{Title: "Short", URL: "https://ncsu.edu/short", Content: "tiny"}, RelevanceScore: 0.9},
		{ExtractedPage: models.ExtractedPage{Title: "Buses", URL: "https://ncsu.edu/buses", Content: "Wolfline buses run daily."}, RelevanceScore: 0.65},
	}
	p := s.BuildPrompt("How much is a permit?", sources)

	if p.SourcesIncluded != 2 || p.SourcesSkipped != 1 {
		t.Fatalf("expected 2 included and 1 skipped, got %+v", p)
	}
	for _, want := range []string{
		"Question: How much is a permit?",
		"[Source 1]: https://ncsu.edu/permits/",
		"[Source 3]: https://ncsu.edu/buses",
		"=== SOURCE 1: Permits (Relevance: 0.8) ===\nURL: https://ncsu.edu/permits/\nContent: Permits cost $200 per year.\n",
		"=== SOURCE 3: Buses (Relevance: 0.65) ===",
		"[Source N](source_url)",
		"**Do not** create a separate \"Sources\" list",
	} {
		if !strings.Contains(p.Text, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	for _, unwanted := range []string{"Permits dup", "[Source 2]", "tiny"} {
		if strings.Contains(p.Text, unwanted) {
			t.Fatalf("prompt should not contain %q", unwanted)
		}
	}
	if p.EstimatedTokens != p.ContentChars/4 {
		t.Fatalf("token estimate should be chars/4, got %d for %d chars", p.EstimatedTokens, p.ContentChars)
	}
}

func TestSynthesizerWindowsLongSources(t *testing.T) {
	t.Parallel()
	s := NewSynthesizer(replyLLM{}, config.DefaultPipelineConfig(), nil)
	long := strings.Repeat("x", SynthesisWindow+1000)
	p := s.BuildPrompt("q", []models.GradedPage{{ExtractedPage: models.ExtractedPage{Title: "Long", URL: "https://ncsu.edu/long", Content: long}, RelevanceScore: 1}})
	if p.SourcesIncluded != 1 {
		t.Fatalf("long sources are logged, not dropped")
	}
	if !strings.Contains(p.Text, "[Content truncated - original: 201,000 chars, showing: 200,000 chars]") {
		t.Fatalf("expected windowing marker in prompt")
	}
	if !strings.Contains(p.Text, "=== SOURCE 1: Long (Relevance: 1.0) ===") {
		t.Fatalf("whole scores keep one decimal")
	}
}

func TestFormatScore(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{0, "0.0"},
		{0.8, "0.8"},
		{0.65, "0.65"},
		{0.333, "0.333"},
		{0.5, "0.5"},
	}
	for _, tc := range cases {
		if got := formatScore(tc.in); got != tc.want {
			t.Fatalf("formatScore(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSynthesizeWithMockWhenEverySourceIsSkipped(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultPipelineConfig()
	cfg.MinContentLength = 1000
	sources := []models.GradedPage{{
		ExtractedPage:  models.ExtractedPage{Title: "Grade appeals", URL: "https://ncsu.edu/appeals", Content: "Submit the grade appeal form.", ExtractionSuccess: true},
		RelevanceScore: 0.9,
	}}
	s := NewSynthesizer(mock_provider.New(), cfg, nil)
	if p := s.BuildPrompt("How do I appeal a grade?", sources); p.SourcesIncluded != 0 {
		t.Fatalf("expected every source skipped, got %+v", p)
	}
	answer, err := s.Synthesize(context.Background(), "combined", "How do I appeal a grade?", sources)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if answer == mock_provider.GradeReply || !strings.Contains(answer, `"How do I appeal a grade?"`) {
		t.Fatalf("expected a synthesized answer, got %q", answer)
	}
}

func TestGradingPromptCarriesGradingMarker(t *testing.T) {
	t.Parallel()
	if !strings.Contains(gradingPrompt("content", "q"), mock_provider.GradingMarker) {
		t.Fatalf("grading prompt must contain %q", mock_provider.GradingMarker)
	}
	s := NewSynthesizer(replyLLM{}, config.DefaultPipelineConfig(), nil)
	p := s.BuildPrompt("How is relevance graded?", graded(0.8))
	if strings.Contains(p.Text, mock_provider.GradingMarker) {
		t.Fatalf("synthesis prompt must not contain %q", mock_provider.GradingMarker)
	}
}

func TestSynthesizeReturnsVerbatimAndWrapsErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sources := graded(0.8)
	sources[0].Content = "content"

	answer, err := NewSynthesizer(replyLLM{reply: "  Answer [Source 1](https://ncsu.edu/0)  "}, config.DefaultPipelineConfig(), nil).
		Synthesize(ctx, "combined", "q", sources)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if answer != "  Answer [Source 1](https://ncsu.edu/0)  " {
		t.Fatalf("answer must be returned unmodified, got %q", answer)
	}

	boom := errors.New("provider down")
	_, err = NewSynthesizer(replyLLM{err: boom}, config.DefaultPipelineConfig(), nil).Synthesize(ctx, "combined", "q", sources)
	if !errors.Is(err, ErrSynthesis) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrSynthesis wrapping provider error, got %v", err)
	}
}
