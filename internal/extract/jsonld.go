package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// StructuredData extracts offers from embedded JSON-LD Product blocks. This
// is the highest-priority extractor: when a retailer publishes schema.org
// metadata it is almost always correct.
type StructuredData struct{}

// Name implements Extractor.
func (e *StructuredData) Name() string { return SourceStructuredData }

// Extract walks every ld+json script on the page, collecting offers from
// each Product node it finds (including nodes nested under @graph).
func (e *StructuredData) Extract(in Input) []model.CandidateOffer {
	var out []model.CandidateOffer
	in.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var root any
		if err := json.Unmarshal([]byte(s.Text()), &root); err != nil {
			return
		}
		walkLD(root, func(product map[string]any) {
			out = append(out, productOffers(in, product)...)
		})
	})
	return out
}

// walkLD recurses through a decoded JSON-LD document invoking fn on every
// node whose @type includes Product.
func walkLD(node any, fn func(map[string]any)) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walkLD(item, fn)
		}
	case map[string]any:
		if hasLDType(v, "Product") {
			fn(v)
		}
		for key, child := range v {
			if key == "offers" {
				continue // consumed by productOffers
			}
			walkLD(child, fn)
		}
	}
}

func hasLDType(node map[string]any, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func productOffers(in Input, product map[string]any) []model.CandidateOffer {
	name := ldString(product["name"])
	if name == "" {
		name = in.ProductName()
	}
	desc := ldString(product["description"])

	var out []model.CandidateOffer
	for _, offer := range ldOffers(product["offers"]) {
		price, priceOK := ldPrice(offer)
		currency := ldString(offer["priceCurrency"])
		if currency == "" {
			currency = "USD"
		}
		label := ldString(offer["name"])
		if label == "" {
			label = ldString(offer["sku"])
		}
		candidate := model.CandidateOffer{
			Label:        firstNonEmpty(label, name),
			Currency:     currency,
			SizeText:     strings.TrimSpace(strings.Join([]string{label, name, desc}, " ")),
			Availability: ldString(offer["availability"]),
			Source:       SourceStructuredData,
		}
		if priceOK {
			candidate.Price = price
		}
		out = append(out, candidate)
	}
	if len(out) == 0 && name != "" {
		// Product block without offers: still useful for name/description,
		// price comes from a lower-priority extractor.
		out = append(out, model.CandidateOffer{
			Label:    name,
			SizeText: strings.TrimSpace(name + " " + desc),
			Source:   SourceStructuredData,
		})
	}
	return out
}

// ldOffers normalizes the offers field: a single Offer object, an array of
// Offers, or an AggregateOffer.
func ldOffers(raw any) []map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		if hasLDType(v, "AggregateOffer") {
			if nested := ldOffers(v["offers"]); len(nested) > 0 {
				return nested
			}
			// Collapse the aggregate to its low price.
			if low, ok := ldNumber(v["lowPrice"]); ok {
				return []map[string]any{{
					"price":         low,
					"priceCurrency": v["priceCurrency"],
					"availability":  v["availability"],
				}}
			}
			return nil
		}
		return []map[string]any{v}
	case []any:
		var out []map[string]any
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func ldPrice(offer map[string]any) (float64, bool) {
	if v, ok := ldNumber(offer["price"]); ok {
		return v, true
	}
	if spec, ok := offer["priceSpecification"].(map[string]any); ok {
		return ldNumber(spec["price"])
	}
	return 0, false
}

func ldNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func ldString(raw any) string {
	s, _ := raw.(string)
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
