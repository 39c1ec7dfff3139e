package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DomainPolicy restricts which hosts discovered results may come from.
// A host matches an entry when it equals it or is a subdomain of it.
type DomainPolicy struct {
	Allow    []string `mapstructure:"allow" json:"allow,omitempty" yaml:"allow,omitempty"`
	Disallow []string `mapstructure:"disallow" json:"disallow,omitempty" yaml:"disallow,omitempty"`
}

// WithSite adds site to the allow list when no allow list is configured.
func (d DomainPolicy) WithSite(site string) DomainPolicy {
	if len(d.Allow) == 0 && strings.TrimSpace(site) != "" {
		d.Allow = []string{site}
	}
	return d
}

// Normalize cleans entries and removes duplicates.
func (d DomainPolicy) Normalize() DomainPolicy {
	return DomainPolicy{
		Allow:    sanitizeDomainList(d.Allow),
		Disallow: sanitizeDomainList(d.Disallow),
	}
}

// Validate ensures no host is both allowed and disallowed.
func (d DomainPolicy) Validate() error {
	norm := d.Normalize()
	allow := make(map[string]struct{}, len(norm.Allow))
	for _, host := range norm.Allow {
		allow[host] = struct{}{}
	}
	for _, host := range norm.Disallow {
		if _, ok := allow[host]; ok {
			return fmt.Errorf("domain policy conflict: host %q present in both allow and disallow lists", host)
		}
	}
	return nil
}

// Permits reports whether rawURL's host passes the policy. An empty allow
// list admits every host that is not disallowed.
func (d DomainPolicy) Permits(rawURL string) bool {
	host := normalizeHost(rawURL)
	if host == "" {
		return false
	}
	for _, blocked := range d.Disallow {
		if hostMatches(host, blocked) {
			return false
		}
	}
	if len(d.Allow) == 0 {
		return true
	}
	for _, allowed := range d.Allow {
		if hostMatches(host, allowed) {
			return true
		}
	}
	return false
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func sanitizeDomainList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		if err != nil || u.Host == "" {
			return ""
		}
		value = u.Hostname()
	}
	return strings.TrimPrefix(value, "www.")
}
