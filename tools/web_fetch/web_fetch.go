package web_fetch

import (
	"context"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/askcampus/tools/web_fetch/httpfetch"
	"go.uber.org/zap"
)

// WebFetcher extracts one page and never fails: problems surface as
// ExtractionSuccess=false with empty Content.
type WebFetcher interface {
	Fetch(ctx context.Context, url, title string) models.ExtractedPage
}

type FetcherType string

const (
	ChromedpFetcherType FetcherType = "chromedp"
	HTTPFetcherType     FetcherType = "http"
)

// TypeFor reports which fetcher the pipeline settings select.
func TypeFor(cfg config.PipelineConfig) FetcherType {
	if cfg.SeleniumEnabled {
		return ChromedpFetcherType
	}
	return HTTPFetcherType
}

// NewWebFetcher builds the fetcher selected by cfg, paced by cfg.FetchDelay.
func NewWebFetcher(cfg config.PipelineConfig, logger *zap.Logger) WebFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	var next WebFetcher
	switch TypeFor(cfg) {
	case ChromedpFetcherType:
		next = chromedp.Fetch{
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
			Enhanced:  cfg.EnhancedExtraction,
			Logger:    logger,
		}
	default:
		next = httpfetch.New(cfg.UserAgent, cfg.Timeout, cfg.EnhancedExtraction, logger)
	}
	return NewPaced(next, cfg.FetchDelay, logger)
}
