package site

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
)

const (
	minTitleRunes  = 6
	maxTitleRunes  = 200
	maxSnippetRune = 500
	// scanFactor bounds how many candidate elements are inspected per wanted result.
	scanFactor = 3
)

// BuildSearchURL appends q as the "q" query parameter of searchURL.
func BuildSearchURL(searchURL, q string) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", err
	}
	values := u.Query()
	values.Set("q", q)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// ParseResults pulls up to k results out of an institution search page.
// Containers (div, article, li) whose class mentions "result" or "search" are
// preferred; when none exist every anchor on the page is considered. Links
// are resolved against base and kept only when permit accepts them.
func ParseResults(doc *goquery.Document, base *url.URL, k int, permit func(string) bool) []models.CandidateResult {
	if k <= 0 {
		return nil
	}
	containers := doc.Find("div, article, li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class := strings.ToLower(s.AttrOr("class", ""))
		return strings.Contains(class, "result") || strings.Contains(class, "search")
	})
	if containers.Length() == 0 {
		containers = doc.Find("a[href]")
	}

	var out []models.CandidateResult
	containers.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= k*scanFactor || len(out) >= k {
			return false
		}
		result, ok := parseContainer(s, base)
		if !ok || (permit != nil && !permit(result.URL)) {
			return true
		}
		out = append(out, result)
		return true
	})
	return out
}

func parseContainer(s *goquery.Selection, base *url.URL) (models.CandidateResult, bool) {
	var link *goquery.Selection
	var title string
	if goquery.NodeName(s) == "a" {
		link = s
		title = helpers.CollapseWhitespace(s.Text())
	} else {
		link = s.Find("a[href]").First()
		title = helpers.CollapseWhitespace(s.Find("h2, h3, h4, a, span").First().Text())
	}
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" || title == "" {
		return models.CandidateResult{}, false
	}
	if utf8.RuneCountInString(title) < minTitleRunes {
		return models.CandidateResult{}, false
	}
	resolved := resolve(base, strings.TrimSpace(href))
	if resolved == "" {
		return models.CandidateResult{}, false
	}

	snippet := s.Find("p, div, span").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(el.AttrOr("class", "")), "snippet")
	}).First()
	if snippet.Length() == 0 {
		snippet = s.Find("p").First()
	}

	return models.CandidateResult{
		Title:   helpers.TruncateRunes(title, maxTitleRunes),
		URL:     resolved,
		Snippet: helpers.TruncateRunes(helpers.CollapseWhitespace(snippet.Text()), maxSnippetRune),
	}, true
}

func resolve(base *url.URL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
