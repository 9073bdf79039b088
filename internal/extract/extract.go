// Package extract pulls candidate offers out of heterogeneous product HTML.
// Three extractors are tried in a fixed priority order: structured data
// (JSON-LD), platform variant JSON (Shopify/WooCommerce/Magento), and a
// free-text fallback. Each returns uniform CandidateOffers so the classifier
// stays extractor-agnostic.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// Source names recorded on candidates, in priority order.
const (
	SourceStructuredData  = "structured_data"
	SourcePlatformVariant = "platform_variant"
	SourceFreeText        = "free_text"
)

// Extractor produces zero or more candidates from one parsed page.
type Extractor interface {
	Name() string
	Extract(in Input) []model.CandidateOffer
}

// Input is a page parsed once and shared by all extractors.
type Input struct {
	Page     model.Page
	Doc      *goquery.Document
	Title    string
	H1       string
	BodyText string
}

// ProductName is the page's best product name: H1, then <title>.
func (in Input) ProductName() string {
	if in.H1 != "" {
		return in.H1
	}
	return in.Title
}

// Parse builds an Input from a fetched page.
func Parse(page model.Page) (Input, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Input{}, fmt.Errorf("parse html: %w", err)
	}
	in := Input{
		Page:     page,
		Doc:      doc,
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		H1:       strings.TrimSpace(doc.Find("h1").First().Text()),
		BodyText: normalizeSpace(doc.Find("body").Text()),
	}
	if in.BodyText == "" {
		in.BodyText = normalizeSpace(doc.Text())
	}
	return in, nil
}

// DefaultChain returns the extractors in their fixed priority order.
func DefaultChain() []Extractor {
	return []Extractor{
		&StructuredData{},
		&PlatformVariant{},
		&FreeText{},
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
