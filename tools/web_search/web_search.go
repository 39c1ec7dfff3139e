package web_search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/tools/web_search/brave"
	"github.com/mohammad-safakhou/askcampus/tools/web_search/browser"
	"github.com/mohammad-safakhou/askcampus/tools/web_search/index"
	"github.com/mohammad-safakhou/askcampus/tools/web_search/serper"
	"github.com/mohammad-safakhou/askcampus/tools/web_search/site"
	"go.uber.org/zap"
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.CandidateResult, error)
}

type Provider string

const (
	SerperProvider  Provider = "serper"
	BraveProvider   Provider = "brave"
	SiteProvider    Provider = "site"
	BrowserProvider Provider = "browser"
	IndexProvider   Provider = "index"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// NewWebSearcher builds the discovery backend named by cfg.Provider. The site
// provider switches to the headless browser when pipeline.SeleniumEnabled is
// set. Every backend is wrapped so that results outside the domain policy are
// dropped.
func NewWebSearcher(cfg config.SearchConfig, pipeline config.PipelineConfig, logger *zap.Logger) (WebSearcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = pipeline.Timeout
	}
	policy := cfg.Domains.WithSite(cfg.Site).Normalize()

	provider := Provider(cfg.Provider)
	if provider == SiteProvider && pipeline.SeleniumEnabled {
		provider = BrowserProvider
	}

	var next WebSearcher
	switch provider {
	case SerperProvider:
		next = serper.New(cfg.SerperAPIKey, cfg.Site, timeout)
	case BraveProvider:
		next = brave.New(cfg.BraveAPIKey, cfg.Site, timeout)
	case SiteProvider:
		s, err := site.New(cfg.SearchURL, pipeline.UserAgent, timeout, policy, logger)
		if err != nil {
			return nil, err
		}
		next = s
	case BrowserProvider:
		s, err := browser.New(cfg.SearchURL, pipeline.UserAgent, timeout, policy, logger)
		if err != nil {
			return nil, err
		}
		next = s
	case IndexProvider:
		s, err := index.Open(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		logger.Info("catalog indexed", zap.String("path", cfg.CatalogPath), zap.Int("entries", s.Len()))
		next = s
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
	logger.Debug("web searcher ready", zap.String("provider", string(provider)), zap.Duration("timeout", timeout))
	return Restrict(next, policy, logger), nil
}

// Restricted drops results whose host fails the domain policy and caps the
// result count at k.
type Restricted struct {
	next   WebSearcher
	policy config.DomainPolicy
	logger *zap.Logger
}

func Restrict(next WebSearcher, policy config.DomainPolicy, logger *zap.Logger) *Restricted {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Restricted{next: next, policy: policy, logger: logger}
}

func (r *Restricted) Discover(ctx context.Context, q string, k int) ([]models.CandidateResult, error) {
	if k <= 0 {
		return []models.CandidateResult{}, nil
	}
	start := time.Now()
	results, err := r.next.Discover(ctx, q, k)
	if err != nil {
		return nil, err
	}
	out := results[:0]
	dropped := 0
	for _, res := range results {
		if !r.policy.Permits(res.URL) {
			dropped++
			continue
		}
		out = append(out, res)
		if len(out) == k {
			break
		}
	}
	r.logger.Debug("discovery complete",
		zap.String("query", q),
		zap.Int("results", len(out)),
		zap.Int("off_domain", dropped),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
