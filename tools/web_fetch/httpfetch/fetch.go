package httpfetch

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/tools/web_fetch/extract"
	"go.uber.org/zap"
)

// Fetch downloads a page over plain HTTP and extracts its text.
type Fetch struct {
	client   *resty.Client
	enhanced bool
	logger   *zap.Logger
}

func New(userAgent string, timeout time.Duration, enhanced bool, logger *zap.Logger) *Fetch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetch{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8,*/*;q=0.5"),
		enhanced: enhanced,
		logger:   logger,
	}
}

func (f *Fetch) Fetch(ctx context.Context, url, title string) models.ExtractedPage {
	failed := models.ExtractedPage{Title: title, URL: url}
	if strings.TrimSpace(url) == "" {
		return failed
	}
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		f.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return failed
	}
	if resp.IsError() {
		f.logger.Warn("fetch failed", zap.String("url", url), zap.Int("status", resp.StatusCode()))
		return failed
	}
	contentType := strings.ToLower(resp.Header().Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.HasPrefix(contentType, "text/") {
		f.logger.Warn("fetch skipped non-text content", zap.String("url", url), zap.String("content_type", contentType))
		return failed
	}

	var page extract.Page
	if strings.HasPrefix(contentType, "text/plain") {
		page = extract.Page{Text: helpers.CollapseWhitespace(resp.String())}
	} else {
		page, err = extract.HTML(resp.String(), url, f.enhanced)
		if err != nil {
			f.logger.Warn("extraction failed", zap.String("url", url), zap.Error(err))
			return failed
		}
	}
	if title == "" {
		title = page.Title
	}
	f.logger.Info("page extracted", zap.String("url", url), zap.Int("chars", len(page.Text)))
	return models.ExtractedPage{
		Title:             title,
		URL:               url,
		Content:           page.Text,
		WordCount:         helpers.WordCount(page.Text),
		ExtractionSuccess: true,
	}
}
