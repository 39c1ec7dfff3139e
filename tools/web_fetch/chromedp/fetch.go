package chromedp

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/tools/web_fetch/extract"
	"go.uber.org/zap"
)

// Fetch renders a page in headless Chrome before extracting its text.
type Fetch struct {
	Timeout   time.Duration
	UserAgent string
	Enhanced  bool
	Logger    *zap.Logger
}

func (f Fetch) Fetch(ctx context.Context, url, title string) models.ExtractedPage {
	failed := models.ExtractedPage{Title: title, URL: url}
	if strings.TrimSpace(url) == "" {
		return failed
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	t0 := time.Now()

	html, err := fetchHTML(ctx, url, f.UserAgent)
	if err != nil {
		logger.Warn("render failed", zap.String("url", url), zap.Error(err))
		return failed
	}
	page, err := extract.HTML(html, url, f.Enhanced)
	if err != nil {
		logger.Warn("extraction failed", zap.String("url", url), zap.Error(err))
		return failed
	}
	if title == "" {
		title = page.Title
	}
	logger.Info("page extracted",
		zap.String("url", url),
		zap.Int("chars", len(page.Text)),
		zap.Duration("render", time.Since(t0)))
	return models.ExtractedPage{
		Title:             title,
		URL:               url,
		Content:           page.Text,
		WordCount:         helpers.WordCount(page.Text),
		ExtractionSuccess: true,
	}
}

func fetchHTML(ctx context.Context, url, userAgent string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
