package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

var trackingQueryParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
}

// CanonicalKey normalises a URL for duplicate detection. The scheme is forced
// to https, the host lowercased, trailing slashes stripped from the path,
// tracking parameters (utm_*, fbclid, gclid) and empty-valued parameters
// removed, the remaining query sorted by name, and the fragment dropped.
// It never fails: unparseable input is lowercased with its fragment and
// trailing slashes removed. CanonicalKey(CanonicalKey(u)) == CanonicalKey(u).
func CanonicalKey(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		fallback := strings.ToLower(raw)
		if i := strings.IndexByte(fallback, '#'); i >= 0 {
			fallback = fallback[:i]
		}
		return strings.TrimRight(fallback, "/")
	}

	var b strings.Builder
	b.WriteString("https://")
	if parsed.User != nil {
		b.WriteString(parsed.User.String())
		b.WriteByte('@')
	}
	b.WriteString(strings.ToLower(parsed.Host))

	p := parsed.EscapedPath()
	if parsed.Host == "" && parsed.Opaque != "" {
		p = parsed.Opaque
	}
	b.WriteString(strings.TrimRight(p, "/"))

	if q := canonicalQuery(parsed.RawQuery); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String()
}

func canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	// ParseQuery returns whatever it could decode alongside the error.
	values, _ := url.ParseQuery(rawQuery)
	kept := make(url.Values, len(values))
	for key, vals := range values {
		if _, drop := trackingQueryParams[key]; drop {
			continue
		}
		for _, v := range vals {
			if v != "" {
				kept[key] = append(kept[key], v)
			}
		}
	}
	return kept.Encode()
}

// SourceKey is the weak key used when deduplicating sources for synthesis:
// only trailing slashes are removed.
func SourceKey(raw string) string {
	return strings.TrimRight(raw, "/")
}

// URLFingerprint returns a deterministic SHA-256 hex digest of CanonicalKey(raw).
func URLFingerprint(raw string) string {
	sum := sha256.Sum256([]byte(CanonicalKey(raw)))
	return hex.EncodeToString(sum[:])
}

// SiteQuery restricts a web search query to site with the "site:" operator.
func SiteQuery(site, query string) string {
	site = strings.TrimSpace(site)
	query = strings.TrimSpace(query)
	if site == "" {
		return query
	}
	return "site:" + site + " " + query
}
