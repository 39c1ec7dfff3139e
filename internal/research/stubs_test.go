package research

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/askcampus/models"
)

type stubSearcher struct {
	results []models.CandidateResult
	err     error
	calls   int
}

func (s *stubSearcher) Discover(ctx context.Context, query string, k int) ([]models.CandidateResult, error) {
	s.calls++
	return s.results, s.err
}

type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url, title string) models.ExtractedPage {
	f.calls = append(f.calls, url)
	content, ok := f.pages[url]
	if !ok {
		return models.ExtractedPage{URL: url, Title: title}
	}
	return models.ExtractedPage{URL: url, Title: title, Content: content, ExtractionSuccess: true}
}

// scriptedLLM answers grading prompts by matching page content and returns
// answer (or answerErr) for everything else.
type scriptedLLM struct {
	mu        sync.Mutex
	grades    map[string]string
	answer    string
	answerErr error
	prompts   []string
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if strings.Contains(prompt, "CONTENT TO GRADE:") {
		for marker, reply := range s.grades {
			if strings.Contains(prompt, marker) {
				return reply, nil
			}
		}
		return "", errors.New("no grade scripted")
	}
	if s.answerErr != nil {
		return "", s.answerErr
	}
	return s.answer, nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *scriptedLLM) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

type replyLLM struct {
	reply string
	err   error
}

func (r replyLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return r.reply, r.err
}
