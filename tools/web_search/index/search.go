package index

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
)

// Search answers queries from an offline catalog held in an in-memory bleve
// index. Catalog entries are keyed by URL fingerprint so repeated URLs
// collapse to the last entry.
type Search struct {
	index   bleve.Index
	entries map[string]models.CandidateResult
}

type document struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Open loads a JSON-lines catalog of {"title","url","snippet"} objects.
func Open(path string) (*Search, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var entries []models.CandidateResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}
		entries = append(entries, models.CandidateResult{Title: doc.Title, URL: doc.URL, Snippet: doc.Snippet})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return New(entries)
}

// New indexes entries in memory. Entries without a URL are skipped.
func New(entries []models.CandidateResult) (*Search, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	s := &Search{index: idx, entries: make(map[string]models.CandidateResult, len(entries))}
	for _, e := range entries {
		if strings.TrimSpace(e.URL) == "" {
			continue
		}
		id := helpers.URLFingerprint(e.URL)
		if err := idx.Index(id, document{Title: e.Title, URL: e.URL, Snippet: e.Snippet}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index %s: %w", e.URL, err)
		}
		s.entries[id] = e
	}
	return s, nil
}

func (s *Search) Discover(ctx context.Context, q string, k int) ([]models.CandidateResult, error) {
	if k <= 0 || strings.TrimSpace(q) == "" {
		return nil, nil
	}
	res, err := s.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), k, 0, false))
	if err != nil {
		// free-text questions may not parse as query-string syntax
		res, err = s.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), k, 0, false))
		if err != nil {
			return nil, fmt.Errorf("index search: %w", err)
		}
	}
	out := make([]models.CandidateResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if e, ok := s.entries[hit.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports the number of catalog entries indexed.
func (s *Search) Len() int { return len(s.entries) }

func (s *Search) Close() error { return s.index.Close() }
