package web_fetch

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/askcampus/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Paced spaces consecutive fetches at least delay apart. The first fetch is
// not delayed.
type Paced struct {
	next    WebFetcher
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewPaced(next WebFetcher, delay time.Duration, logger *zap.Logger) *Paced {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Paced{next: next, limiter: rate.NewLimiter(limit, 1), logger: logger}
}

func (p *Paced) Fetch(ctx context.Context, url, title string) models.ExtractedPage {
	if err := p.limiter.Wait(ctx); err != nil {
		p.logger.Warn("fetch not attempted", zap.String("url", url), zap.Error(err))
		return models.ExtractedPage{Title: title, URL: url}
	}
	return p.next.Fetch(ctx, url, title)
}
