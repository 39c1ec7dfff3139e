package serper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
)

// DefaultEndpoint is the Serper Google search API.
const DefaultEndpoint = "https://google.serper.dev/search"

type Search struct {
	client   *resty.Client
	endpoint string
	site     string
}

type Option func(*Search)

// WithEndpoint overrides the API URL.
func WithEndpoint(endpoint string) Option {
	return func(s *Search) { s.endpoint = endpoint }
}

func New(apiKey, site string, timeout time.Duration, opts ...Option) *Search {
	s := &Search{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("X-API-KEY", apiKey).
			SetHeader("Content-Type", "application/json"),
		endpoint: DefaultEndpoint,
		site:     site,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type organic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type response struct {
	Organic []organic `json:"organic"`
}

func (s *Search) Discover(ctx context.Context, q string, k int) ([]models.CandidateResult, error) {
	// https://serper.dev/ docs
	var body response
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"q": helpers.SiteQuery(s.site, q), "num": k}).
		SetResult(&body).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("serper search: status %d", resp.StatusCode())
	}

	out := make([]models.CandidateResult, 0, len(body.Organic))
	for _, item := range body.Organic {
		if len(out) >= k {
			break
		}
		if item.Link == "" {
			continue
		}
		out = append(out, models.CandidateResult{
			Title:   helpers.CleanText(item.Title, 200),
			URL:     item.Link,
			Snippet: helpers.CleanText(item.Snippet, 500),
		})
	}
	return out, nil
}
