package brave

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
)

const (
	DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"
	// maxCount is the largest page size the API accepts.
	maxCount = 20
)

type Search struct {
	client   *resty.Client
	endpoint string
	site     string
}

type Option func(*Search)

func WithEndpoint(endpoint string) Option {
	return func(s *Search) { s.endpoint = endpoint }
}

func New(apiKey, site string, timeout time.Duration, opts ...Option) *Search {
	s := &Search{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("X-Subscription-Token", apiKey),
		endpoint: DefaultEndpoint,
		site:     site,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type webResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type response struct {
	Web struct {
		Results []webResult `json:"results"`
	} `json:"web"`
}

func (s *Search) Discover(ctx context.Context, q string, k int) ([]models.CandidateResult, error) {
	// https://api.search.brave.com/app/documentation/web-search
	count := k
	if count > maxCount {
		count = maxCount
	}
	var body response
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     helpers.SiteQuery(s.site, q),
			"count": strconv.Itoa(count),
		}).
		SetResult(&body).
		Get(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("brave search: status %d", resp.StatusCode())
	}

	out := make([]models.CandidateResult, 0, len(body.Web.Results))
	for _, item := range body.Web.Results {
		if len(out) >= k {
			break
		}
		if item.URL == "" {
			continue
		}
		// descriptions carry <strong> highlighting
		out = append(out, models.CandidateResult{
			Title:   helpers.CleanText(item.Title, 200),
			URL:     item.URL,
			Snippet: helpers.CleanText(item.Description, 500),
		})
	}
	return out, nil
}
