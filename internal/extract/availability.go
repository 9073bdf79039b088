package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

var soldOutPhrases = []string{
	"sold out",
	"out of stock",
	"currently unavailable",
}

// AvailabilityNegative reports whether an offer-level availability string
// indicates the item cannot be bought. Schema.org values like
// "http://schema.org/InStock" contain "instock" once lowercased; anything
// else ("OutOfStock", "SoldOut", "PreOrder") is treated as negative. An
// empty string is not negative: absence of the field says nothing.
func AvailabilityNegative(availability string) bool {
	if availability == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(availability), "instock")
}

// SoldOut decides whether the page or any of its candidates indicates the
// offer cannot currently be purchased.
func SoldOut(in Input, offers []model.CandidateOffer) bool {
	for _, offer := range offers {
		if offer.Available != nil && !*offer.Available {
			return true
		}
		if AvailabilityNegative(offer.Availability) {
			return true
		}
	}
	lower := strings.ToLower(in.BodyText)
	for _, phrase := range soldOutPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return buttonSaysSoldOut(in)
}

func buttonSaysSoldOut(in Input) bool {
	found := false
	in.Doc.Find("button, input[type=submit], a.button, .btn").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if text == "" {
			if v, ok := s.Attr("value"); ok {
				text = strings.ToLower(strings.TrimSpace(v))
			}
		}
		if strings.Contains(text, "sold out") {
			found = true
			return false
		}
		return true
	})
	return found
}
