// Package pattern holds the rule tables used to recognize caviar listings:
// species, grades, accessory exclusions, non-sturgeon roe terms, and money.
// Everything here is pure data plus matching functions; precedence between
// overlapping rules is expressed by explicit slice order, never map order.
package pattern

import "regexp"

// Species pairs a common market name with its scientific name.
type Species struct {
	Common string
	Latin  string
}

type speciesRule struct {
	re      *regexp.Regexp
	species Species
}

// speciesRules is tried in order; first match wins. Hybrid rules precede
// their plain counterparts because the plain name is a substring of the
// hybrid marketing label ("Kaluga Hybrid" must not resolve to "Kaluga").
// "Amur" is folded into the Kaluga Hybrid rule: vendors label the
// dauricus x schrenckii cross as Kaluga-Amur.
var speciesRules = []speciesRule{
	{regexp.MustCompile(`(?i)\bkaluga[\s-]*(?:amur[\s-]*)?hybrid\b|\bkaluga[\s-]+amur\b|\bamur[\s-]+kaluga\b`),
		Species{"Kaluga Hybrid", "Huso dauricus x Acipenser schrenckii"}},
	{regexp.MustCompile(`(?i)\bbeluga[\s-]*hybrid\b`), Species{"Beluga Hybrid", "Huso huso x Acipenser baerii"}},
	{regexp.MustCompile(`(?i)\bbeluga\b`), Species{"Beluga", "Huso huso"}},
	{regexp.MustCompile(`(?i)\bkaluga\b`), Species{"Kaluga", "Huso dauricus"}},
	{regexp.MustCompile(`(?i)\b(?:osetra|ossetra|oscietra|osietra)\b`), Species{"Osetra", "Acipenser gueldenstaedtii"}},
	{regexp.MustCompile(`(?i)\bsevruga\b`), Species{"Sevruga", "Acipenser stellatus"}},
	{regexp.MustCompile(`(?i)\bwhite\s+sturgeon\b`), Species{"White Sturgeon", "Acipenser transmontanus"}},
	{regexp.MustCompile(`(?i)\bsiberian\b`), Species{"Siberian", "Acipenser baerii"}},
	{regexp.MustCompile(`(?i)\bhackleback\b`), Species{"Hackleback", "Scaphirhynchus platorynchus"}},
	{regexp.MustCompile(`(?i)\bpaddlefish\b`), Species{"Paddlefish", "Polyodon spathula"}},
}

// latinBySpecies maps every allowed common name 1:1 to its scientific name.
var latinBySpecies = func() map[string]string {
	m := make(map[string]string, len(speciesRules))
	for _, r := range speciesRules {
		m[r.species.Common] = r.species.Latin
	}
	return m
}()

// MatchSpecies returns the first species rule matching text.
func MatchSpecies(text string) (Species, bool) {
	if text == "" {
		return Species{}, false
	}
	for _, r := range speciesRules {
		if r.re.MatchString(text) {
			return r.species, true
		}
	}
	return Species{}, false
}

// SpeciesLatin resolves a common name to its scientific name. Returns false
// for names outside the allowed vocabulary.
func SpeciesLatin(common string) (string, bool) {
	latin, ok := latinBySpecies[common]
	return latin, ok
}

// KnownSpecies reports whether common belongs to the allowed vocabulary.
func KnownSpecies(common string) bool {
	_, ok := latinBySpecies[common]
	return ok
}
