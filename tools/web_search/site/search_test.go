package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mohammad-safakhou/askcampus/config"
	"go.uber.org/zap"
)

const resultsPage = `<html><body>
<nav><a href="/about">About NC State University</a></nav>
<div id="listing">
  <li class="gs-webResult">
    <h3><a href="https://transportation.ncsu.edu/parking/">Parking Permits</a></h3>
    <div class="gs-snippet">Students can buy   permits online.</div>
  </li>
  <li class="result">
    <a href="/housing/">Campus Housing Options</a>
    <p>Residence halls and apartments.</p>
  </li>
  <li class="result"><a href="https://example.com/elsewhere">Off-site result page</a></li>
  <li class="result"><a href="https://www.ncsu.edu/x">Tiny</a></li>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	t.Parallel()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	base, _ := url.Parse("https://www.ncsu.edu/search/")
	policy := config.DomainPolicy{Allow: []string{"ncsu.edu"}}

	got := ParseResults(doc, base, 5, policy.Permits)
	var urls []string
	for _, r := range got {
		urls = append(urls, r.URL)
	}
	joined := strings.Join(urls, " ")
	if !strings.Contains(joined, "https://transportation.ncsu.edu/parking/") {
		t.Fatalf("missing parking result: %v", urls)
	}
	if !strings.Contains(joined, "https://www.ncsu.edu/housing/") {
		t.Fatalf("relative link not resolved: %v", urls)
	}
	if strings.Contains(joined, "example.com") {
		t.Fatalf("off-domain result kept: %v", urls)
	}
	if strings.Contains(joined, "/x") {
		t.Fatalf("short title kept: %v", urls)
	}
	for _, r := range got {
		if r.URL == "https://transportation.ncsu.edu/parking/" && r.Snippet != "Students can buy permits online." {
			t.Fatalf("unexpected snippet %q", r.Snippet)
		}
	}
}

func TestParseResultsAnchorFallback(t *testing.T) {
	t.Parallel()
	page := `<html><body><a href="https://www.ncsu.edu/admissions">Undergraduate Admissions</a><a href="#">Skip</a></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	base, _ := url.Parse("https://www.ncsu.edu/search/")
	got := ParseResults(doc, base, 3, nil)
	if len(got) != 1 || got[0].Title != "Undergraduate Admissions" {
		t.Fatalf("unexpected fallback results %+v", got)
	}
}

func TestParseResultsTruncates(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("t", 250)
	page := `<div class="result"><a href="https://www.ncsu.edu/a">` + long + `</a><p>` + strings.Repeat("s", 600) + `</p></div>`
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(page))
	got := ParseResults(doc, nil, 1, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if len([]rune(got[0].Title)) != 200 || len([]rune(got[0].Snippet)) != 500 {
		t.Fatalf("title/snippet not truncated: %d/%d", len(got[0].Title), len(got[0].Snippet))
	}
}

func TestBuildSearchURL(t *testing.T) {
	t.Parallel()
	got, err := BuildSearchURL("https://www.ncsu.edu/search/", "parking & permits")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got != "https://www.ncsu.edu/search/?q=parking+%26+permits" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestSearchDiscover(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "parking" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if ua := r.Header.Get("User-Agent"); ua != "TestBot" {
			t.Errorf("unexpected user agent %q", ua)
		}
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	s, err := New(srv.URL+"/search/", "TestBot", 5*time.Second, config.DomainPolicy{Allow: []string{"ncsu.edu"}}, zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := s.Discover(context.Background(), "parking", 5)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	// relative links resolve to the test server host and are filtered out
	if len(got) != 1 || got[0].URL != "https://transportation.ncsu.edu/parking/" {
		t.Fatalf("unexpected results %+v", got)
	}
}
