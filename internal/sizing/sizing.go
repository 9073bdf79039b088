// Package sizing normalizes package sizes and prices: ounce/gram text to
// canonical grams, human size labels, size-matching tokens, and
// price-per-gram arithmetic.
package sizing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// GramsPerOunce is the exact conversion factor used everywhere.
const GramsPerOunce = 28.3495

var (
	gramsRe  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:g|gram|grams)\b`)
	ouncesRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:oz|ounce|ounces)\b`)
)

// ParseSize extracts the first weight token from text and returns canonical
// grams. Gram tokens are preferred over ounce tokens so that a dual-unit
// label like "1 oz / 30 g" round-trips to the gram value.
func ParseSize(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	if m := gramsRe.FindStringSubmatch(text); m != nil {
		if v, err := parseDecimal(m[1]); err == nil {
			return v, true
		}
	}
	if m := ouncesRe.FindStringSubmatch(text); m != nil {
		if v, err := parseDecimal(m[1]); err == nil {
			return round2(v * GramsPerOunce), true
		}
	}
	return 0, false
}

// ParseSizes extracts every weight token from text in canonical grams, gram
// tokens first, deduplicated. Callers that need one size from ambiguous page
// text pick among these with PickNominal.
func ParseSizes(text string) []float64 {
	if text == "" {
		return nil
	}
	seen := make(map[float64]struct{})
	var out []float64
	add := func(v float64) {
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, m := range gramsRe.FindAllStringSubmatch(text, -1) {
		if v, err := parseDecimal(m[1]); err == nil {
			add(v)
		}
	}
	for _, m := range ouncesRe.FindAllStringSubmatch(text, -1) {
		if v, err := parseDecimal(m[1]); err == nil {
			add(round2(v * GramsPerOunce))
		}
	}
	return out
}

func parseDecimal(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
}

// Label renders a size in both unit systems, e.g. 30 -> "1 oz / 30 g".
// The ounce value is shown as an integer when close enough, else to one
// decimal place with the trailing zero stripped.
func Label(grams float64) string {
	return fmt.Sprintf("%s oz / %d g", ounceText(grams), int(math.Round(grams)))
}

func ounceText(grams float64) string {
	if inOneOunceCluster(grams) {
		// Vendors round 1 oz to anything between 28 and 30 grams.
		return "1"
	}
	oz := grams / GramsPerOunce
	nearest := math.Round(oz)
	if math.Abs(oz-nearest) <= 0.05 {
		return strconv.Itoa(int(nearest))
	}
	s := strconv.FormatFloat(math.Round(oz*10)/10, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

func inOneOunceCluster(grams float64) bool {
	return grams >= 27.5 && grams <= 30.5
}

// Tokens generates the textual variants of a size used to match an offer or
// variant name against a detected nominal size. The 28/29/30 gram cluster is
// special-cased because vendors round one ounce differently.
func Tokens(grams float64) map[string]struct{} {
	out := make(map[string]struct{}, 8)
	addGramTokens := func(g int) {
		out[fmt.Sprintf("%dg", g)] = struct{}{}
		out[fmt.Sprintf("%d g", g)] = struct{}{}
	}
	addGramTokens(int(math.Round(grams)))

	oz := grams / GramsPerOunce
	nearest := math.Round(oz)
	if inOneOunceCluster(grams) {
		for _, g := range []int{28, 29, 30} {
			addGramTokens(g)
		}
		out["1oz"] = struct{}{}
		out["1 oz"] = struct{}{}
		out["1 ounce"] = struct{}{}
	} else if math.Abs(oz-nearest) <= 0.05 && nearest > 0 {
		n := int(nearest)
		out[fmt.Sprintf("%doz", n)] = struct{}{}
		out[fmt.Sprintf("%d oz", n)] = struct{}{}
		out[fmt.Sprintf("%d ounce", n)] = struct{}{}
	}
	return out
}

// MatchesSize reports whether text mentions the given size by any of its
// token variants. Matching is case-insensitive.
func MatchesSize(text string, grams float64) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for tok := range Tokens(grams) {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// PricePerGram computes price/grams rounded to cents-per-gram precision.
func PricePerGram(price, grams float64) float64 {
	if grams <= 0 {
		return 0
	}
	return round2(price / grams)
}

// MaxPlausiblePPG is the default upper bound of the price-per-gram sanity
// band, in currency units per gram.
const MaxPlausiblePPG = 100.0

// PlausiblePricePerGram is the sanity band (0, MaxPlausiblePPG]. Values
// outside it are extraction errors, not real offers.
func PlausiblePricePerGram(ppg float64) bool {
	return ppg > 0 && ppg <= MaxPlausiblePPG
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
