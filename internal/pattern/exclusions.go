package pattern

import (
	"regexp"
	"strings"
)

// accessoryPhrases are matched as substrings: each contains a space, so a
// plain substring test cannot fire inside an unrelated word.
var accessoryPhrases = []string{
	"gift set",
	"gift box",
	"gift card",
	"gift certificate",
	"gift basket",
	"corporate gift",
	"tasting set",
	"tasting flight",
	"caviar tasting",
	"starter kit",
	"serving set",
	"caviar key",
	"caviar opener",
	"caviar spoon",
	"caviar server",
	"mother of pearl",
	"creme fraiche",
}

// accessoryWords are single tokens matched on word boundaries only. "class"
// must not fire inside "Classic", nor "kit" inside "Kitchens".
var accessoryWords = []string{
	"spoon",
	"spoons",
	"opener",
	"subscription",
	"membership",
	"sampler",
	"tasting",
	"accessories",
	"accessory",
	"apparel",
	"merch",
	"voucher",
	"class",
	"classes",
	"workshop",
	"masterclass",
	"experience",
	"hamper",
	"blini",
	"blinis",
	"kit",
}

var accessoryWordRe = compileWordAlternation(accessoryWords)

// nonSturgeonTerms flag roe products from fish outside the sturgeon family.
var nonSturgeonTerms = []string{
	"salmon roe",
	"trout roe",
	"whitefish roe",
	"flying fish roe",
	"ikura",
	"tobiko",
	"masago",
	"lumpfish",
	"capelin",
	"bowfin",
	"snail caviar",
	"vegan caviar",
	"seaweed caviar",
}

var caviarWordRe = regexp.MustCompile(`(?i)\bcaviar\b`)

var sturgeonWordRe = regexp.MustCompile(`(?i)\bsturgeon\b`)

var hacklebackRe = regexp.MustCompile(`(?i)\bhackleback\b`)

func compileWordAlternation(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// IsAccessory reports whether text looks like a non-caviar product: gift
// sets, utensils, subscriptions, experiences.
func IsAccessory(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range accessoryPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return accessoryWordRe.MatchString(text)
}

// MentionsNonSturgeon reports whether text advertises roe from a
// non-sturgeon species. Hackleback collides with generic roe heuristics but
// is itself a sturgeon: when the text says both "hackleback" and "sturgeon"
// the flag is suppressed.
func MentionsNonSturgeon(text string) bool {
	if text == "" {
		return false
	}
	if hacklebackRe.MatchString(text) && sturgeonWordRe.MatchString(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range nonSturgeonTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// HasCaviarWord reports whether the literal word "caviar" appears in text.
func HasCaviarWord(text string) bool {
	return caviarWordRe.MatchString(text)
}
