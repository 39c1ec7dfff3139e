package site

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/models"
	"go.uber.org/zap"
)

// Search queries the institution's own search page over plain HTTP.
type Search struct {
	client    *resty.Client
	searchURL string
	baseURL   *url.URL
	policy    config.DomainPolicy
	logger    *zap.Logger
}

func New(searchURL, userAgent string, timeout time.Duration, policy config.DomainPolicy, logger *zap.Logger) (*Search, error) {
	base, err := url.Parse(searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Search{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
			SetHeader("Accept-Language", "en-US,en;q=0.5"),
		searchURL: searchURL,
		baseURL:   base,
		policy:    policy,
		logger:    logger,
	}, nil
}

func (s *Search) Discover(ctx context.Context, q string, k int) ([]models.CandidateResult, error) {
	target, err := BuildSearchURL(s.searchURL, q)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return nil, fmt.Errorf("site search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("site search: status %d", resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("site search: parse html: %w", err)
	}
	results := ParseResults(doc, s.baseURL, k, s.policy.Permits)
	s.logger.Debug("site search parsed", zap.String("url", target), zap.Int("results", len(results)))
	return results, nil
}
