package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
)

// productPathHints mark hrefs that usually lead to a product detail page
// on the common storefront platforms.
var productPathHints = []string{
	"/product/",
	"/products/",
	"/p/",
	"/prod/",
	"/item/",
	"/shop/",
	"/store/",
	"/collection/",
	"/collections/",
	"/caviar",
}

// NormalizeURL standardizes a URL so the visit tracker never fetches the
// same page twice. It lowercases scheme and host, strips default ports,
// fragments, and tracking parameters, and sorts the remaining query.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(key, "utm_") || key == "fbclid" || key == "gclid" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ProductLinks extracts candidate product URLs from a listing page. A
// configured CSS selector hint wins; otherwise hrefs are filtered by path
// heuristics. Links are resolved, normalized, deduplicated, and kept only
// on the site's allowed domains.
func ProductLinks(page model.Page, site sites.Site, limit int) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}
	base, err := url.Parse(page.FinalURL)
	if err != nil || base.Host == "" {
		base, err = url.Parse(page.URL)
		if err != nil {
			return nil
		}
	}

	selector := site.Selectors.ProductLink
	useHints := selector == ""
	if useHints {
		selector = "a[href]"
	}

	seen := make(map[string]struct{})
	var out []string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if !domainAllowed(resolved.Host, site.AllowDomains) {
			return true
		}
		if useHints && !looksLikeProductPath(resolved.Path) {
			return true
		}
		normalized, err := NormalizeURL(resolved.String())
		if err != nil {
			return true
		}
		if _, dup := seen[normalized]; dup {
			return true
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
		return limit <= 0 || len(out) < limit
	})
	return out
}

func looksLikeProductPath(path string) bool {
	lower := strings.ToLower(path)
	for _, hint := range productPathHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func domainAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, d := range allowed {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
