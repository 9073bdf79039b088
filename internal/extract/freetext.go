package extract

import (
	"strings"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/pattern"
	"github.com/sturgeonlabs/caviarwatch/internal/sizing"
)

// FreeText is the last-resort extractor: the first money pattern anywhere in
// the rendered text plus the first size token in the product name or body.
// It produces at most one candidate.
type FreeText struct{}

// Name implements Extractor.
func (e *FreeText) Name() string { return SourceFreeText }

// Extract implements Extractor.
func (e *FreeText) Extract(in Input) []model.CandidateOffer {
	name := in.ProductName()
	currency, price, ok := metaPrice(in)
	if !ok {
		currency, price, ok = pattern.ParseMoney(in.BodyText)
	}
	if !ok || price <= 0 {
		return nil
	}

	sizeText := name
	if _, found := sizing.ParseSize(sizeText); !found {
		sizeText = in.BodyText
	}

	return []model.CandidateOffer{{
		Label:    name,
		Price:    price,
		Currency: currency,
		SizeText: sizeText,
		Source:   SourceFreeText,
	}}
}

// metaPrice reads OpenGraph product meta tags, the cheapest structured
// signal short of JSON-LD.
func metaPrice(in Input) (string, float64, bool) {
	amount, ok := in.Doc.Find(`meta[property="og:price:amount"]`).First().Attr("content")
	if !ok || strings.TrimSpace(amount) == "" {
		return "", 0, false
	}
	price, ok := ldNumber(amount)
	if !ok || price <= 0 {
		return "", 0, false
	}
	currency := "USD"
	if cur, found := in.Doc.Find(`meta[property="og:price:currency"]`).First().Attr("content"); found {
		if trimmed := strings.TrimSpace(cur); trimmed != "" {
			currency = strings.ToUpper(trimmed)
		}
	}
	return currency, price, true
}
