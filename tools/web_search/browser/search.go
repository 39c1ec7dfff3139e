package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/tools/web_search/site"
	"go.uber.org/zap"
)

// DefaultSettle is how long the rendered page is given to populate results.
const DefaultSettle = 5 * time.Second

// Search renders the institution search page in headless Chrome so that
// script-driven result widgets are populated before parsing.
type Search struct {
	searchURL string
	baseURL   *url.URL
	userAgent string
	timeout   time.Duration
	settle    time.Duration
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
		searchURL: searchURL,
		baseURL:   base,
		userAgent: userAgent,
		timeout:   timeout,
		settle:    DefaultSettle,
		policy:    policy,
		logger:    logger,
	}, nil
}

func (s *Search) Discover(ctx context.Context, q string, k int) ([]models.CandidateResult, error) {
	target, err := site.BuildSearchURL(s.searchURL, q)
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout+s.settle)
		defer cancel()
	}
	html, err := s.render(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("browser search: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("browser search: parse html: %w", err)
	}
	results := site.ParseResults(doc, s.baseURL, k, s.policy.Permits)
	s.logger.Debug("browser search parsed", zap.String("url", target), zap.Int("results", len(results)))
	return results, nil
}

func (s *Search) render(ctx context.Context, target string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(s.userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
