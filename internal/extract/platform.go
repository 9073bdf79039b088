package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/sizing"
)

// PlatformVariant extracts offers from storefront-platform JSON embedded in
// the page: Shopify variants arrays (prices in minor units), WooCommerce
// variation blobs, and Magento option prices. Variants whose title does not
// parse to a recognized tin/jar size are dropped here, before
// classification.
type PlatformVariant struct{}

// Name implements Extractor.
func (e *PlatformVariant) Name() string { return SourcePlatformVariant }

// Extract implements Extractor.
func (e *PlatformVariant) Extract(in Input) []model.CandidateOffer {
	var out []model.CandidateOffer
	out = append(out, e.shopify(in)...)
	out = append(out, e.woocommerce(in)...)
	out = append(out, e.magento(in)...)
	return out
}

type shopifyVariant struct {
	Title       string      `json:"title"`
	Name        string      `json:"name"`
	PublicTitle string      `json:"public_title"`
	Price       json.Number `json:"price"`
	Available   *bool       `json:"available"`
}

func (e *PlatformVariant) shopify(in Input) []model.CandidateOffer {
	var out []model.CandidateOffer
	in.Doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, `"variants":`)
		if idx < 0 {
			return true
		}
		raw := extractJSONArray(text[idx+len(`"variants":`):])
		if raw == "" {
			return true
		}
		var variants []shopifyVariant
		if err := json.Unmarshal([]byte(raw), &variants); err != nil {
			return true
		}
		for _, v := range variants {
			title := firstNonEmpty(v.Title, v.PublicTitle, v.Name)
			cents, err := v.Price.Float64()
			if err != nil || cents <= 0 {
				continue
			}
			candidate := model.CandidateOffer{
				Label:     firstNonEmpty(title, in.ProductName()),
				Price:     cents / 100, // Shopify prices are minor units
				Currency:  "USD",
				SizeText:  title + " " + in.ProductName(),
				Available: v.Available,
				Source:    SourcePlatformVariant,
			}
			if !plausibleVariantSize(candidate.SizeText) {
				continue
			}
			out = append(out, candidate)
		}
		return len(out) == 0
	})
	return out
}

type wooVariation struct {
	DisplayPrice float64           `json:"display_price"`
	IsInStock    *bool             `json:"is_in_stock"`
	Attributes   map[string]string `json:"attributes"`
}

func (e *PlatformVariant) woocommerce(in Input) []model.CandidateOffer {
	raw, ok := in.Doc.Find("[data-product_variations]").First().Attr("data-product_variations")
	if !ok || raw == "" {
		return nil
	}
	var variations []wooVariation
	if err := json.Unmarshal([]byte(raw), &variations); err != nil {
		return nil
	}
	var out []model.CandidateOffer
	for _, v := range variations {
		if v.DisplayPrice <= 0 {
			continue
		}
		attrText := strings.Join(attributeValues(v.Attributes), " ")
		candidate := model.CandidateOffer{
			Label:     firstNonEmpty(attrText, in.ProductName()),
			Price:     v.DisplayPrice, // WooCommerce display prices are major units
			Currency:  "USD",
			SizeText:  attrText + " " + in.ProductName(),
			Available: v.IsInStock,
			Source:    SourcePlatformVariant,
		}
		if !plausibleVariantSize(candidate.SizeText) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// magento pulls final prices from a swatch/configurable jsonConfig block.
// Option labels are not reliably present, so the product name supplies the
// size text.
func (e *PlatformVariant) magento(in Input) []model.CandidateOffer {
	var out []model.CandidateOffer
	in.Doc.Find(`script[type="text/x-magento-init"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, `"optionPrices":`)
		if idx < 0 {
			return true
		}
		raw := extractJSONObject(text[idx+len(`"optionPrices":`):])
		if raw == "" {
			return true
		}
		var prices map[string]struct {
			FinalPrice struct {
				Amount float64 `json:"amount"`
			} `json:"finalPrice"`
		}
		if err := json.Unmarshal([]byte(raw), &prices); err != nil {
			return true
		}
		for _, p := range prices {
			if p.FinalPrice.Amount <= 0 {
				continue
			}
			candidate := model.CandidateOffer{
				Label:    in.ProductName(),
				Price:    p.FinalPrice.Amount,
				Currency: "USD",
				SizeText: in.ProductName(),
				Source:   SourcePlatformVariant,
			}
			if !plausibleVariantSize(candidate.SizeText) {
				continue
			}
			out = append(out, candidate)
		}
		return len(out) == 0
	})
	return out
}

// plausibleVariantSize requires the variant text to parse to a size within
// tolerance of a recognized tin/jar size.
func plausibleVariantSize(text string) bool {
	grams, ok := sizing.ParseSize(text)
	if !ok {
		return false
	}
	_, ok = sizing.NearestNominal(grams)
	return ok
}

func attributeValues(attrs map[string]string) []string {
	// Sort-free: order does not matter for size matching, but keep size-ish
	// attributes first for nicer labels.
	var sized, rest []string
	for _, v := range attrs {
		if _, ok := sizing.ParseSize(v); ok {
			sized = append(sized, v)
		} else if v != "" {
			rest = append(rest, v)
		}
	}
	return append(sized, rest...)
}

// extractJSONArray returns the balanced [...] prefix of s, respecting
// strings and escapes.
func extractJSONArray(s string) string {
	return extractBalanced(s, '[', ']')
}

// extractJSONObject returns the balanced {...} prefix of s.
func extractJSONObject(s string) string {
	return extractBalanced(s, '{', '}')
}

func extractBalanced(s string, open, closing byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
