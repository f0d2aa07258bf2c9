package urlutil

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// ArchiveURL builds the listing-page URL for one approval year, e.g.
// https://www.drugs.com/newdrugs-archive/2024.html.
func ArchiveURL(base string, year int) string {
	return fmt.Sprintf("%s/%d.html", strings.TrimSuffix(base, "/"), year)
}

// Normalize canonicalizes a scraped link: https by default, lowercased
// host, cleaned path, tracking parameters stripped, stable query order.
// Returns the normalized URL and its hostname.
func Normalize(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Fragment = ""
	u.Host = normalizeHost(u.Host)
	u.Path = normalizePath(u.Path)
	u.RawQuery = normalizeQuery(u.RawQuery)
	return u.String(), u.Hostname(), nil
}

// ResolveDetail resolves a drug detail href against the listing page it was
// found on. Empty result means the link is not worth following.
func ResolveDetail(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	normalized, _, err := Normalize(u.String())
	if err != nil {
		return ""
	}
	return normalized
}

// SameHost reports whether the target host matches the listing host,
// ignoring a www prefix.
func SameHost(base *url.URL, host string) bool {
	if base == nil || host == "" {
		return false
	}
	return normalizeHost(base.Hostname()) == normalizeHost(host)
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	if clean != "/" && strings.HasSuffix(clean, "/") {
		clean = strings.TrimSuffix(clean, "/")
	}
	return clean
}

func normalizeQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	for key := range values {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "gclid" || lk == "fbclid" || lk == "ref" || lk == "source" {
			delete(values, key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	normalized := url.Values{}
	for _, k := range keys {
		normalized[k] = values[k]
	}
	return normalized.Encode()
}
