package crawler

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// storefrontKeywords are markers of client-rendered shells that ship no
// product markup in the initial response.
var storefrontKeywords = [][]byte{
	[]byte("window.__initial_state__"),
	[]byte("window.__nuxt__"),
	[]byte("id=\"__next\""),
	[]byte("enable javascript"),
	[]byte("loading products"),
}

// priceSelectors are signals the static HTML already carries offer data.
var priceSelectors = []string{
	"script[type='application/ld+json']",
	"[itemprop='price']",
	".price",
}

// HeuristicDetector implements Detector using simple HTML signals.
type HeuristicDetector struct {
	minHTMLBytes int
}

// NewHeuristicDetector constructs a Detector with the configured threshold.
func NewHeuristicDetector(minBytes int) *HeuristicDetector {
	return &HeuristicDetector{minHTMLBytes: minBytes}
}

// NeedsJS inspects the page for signals that rendering is required: a
// suspiciously small body, an SPA shell marker, or no price markup at all.
func (d *HeuristicDetector) NeedsJS(_ context.Context, page model.Page) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(page.Body) < d.minHTMLBytes {
		return true
	}
	lowerBody := bytes.ToLower(page.Body)
	for _, kw := range storefrontKeywords {
		if bytes.Contains(lowerBody, kw) {
			return true
		}
	}
	return d.missingPriceMarkup(page.Body)
}

func (d *HeuristicDetector) missingPriceMarkup(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return true
	}
	for _, sel := range priceSelectors {
		if doc.Find(sel).Length() > 0 {
			return false
		}
	}
	return true
}
