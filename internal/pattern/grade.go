package pattern

import "regexp"

// Grade is a quality label with its numeric rank; lower ranks sort first in
// the digest.
type Grade struct {
	Rank  int
	Label string
}

// UngradedRank is the rank assigned when no grade keyword is found. Grade is
// optional; absence sorts last within a bucket.
const UngradedRank = 99

type gradeRule struct {
	re    *regexp.Regexp
	grade Grade
}

// gradeRules is iterated in declared order so that precedence between
// overlapping keywords ("Gold Reserve" vs "Gold" vs "Reserve") is a visible
// property of the table rather than an accident of map iteration.
var gradeRules = []gradeRule{
	{regexp.MustCompile(`(?i)\bimperial\b`), Grade{1, "Imperial"}},
	{regexp.MustCompile(`(?i)\broyal\b`), Grade{2, "Royal"}},
	{regexp.MustCompile(`(?i)\bgold\s+reserve\b`), Grade{3, "Gold Reserve"}},
	{regexp.MustCompile(`(?i)\bgold\b`), Grade{4, "Gold"}},
	{regexp.MustCompile(`(?i)\breserve\b`), Grade{5, "Reserve"}},
	{regexp.MustCompile(`(?i)\bsupreme\b`), Grade{6, "Supreme"}},
	{regexp.MustCompile(`(?i)\bpremier\b`), Grade{7, "Premier"}},
	{regexp.MustCompile(`(?i)\bestate\b`), Grade{8, "Estate"}},
	{regexp.MustCompile(`(?i)\bselect\b`), Grade{9, "Select"}},
	{regexp.MustCompile(`(?i)\bclassic\b`), Grade{10, "Classic"}},
}

// MatchGrade returns the first grade keyword found in text.
func MatchGrade(text string) (Grade, bool) {
	if text == "" {
		return Grade{}, false
	}
	for _, r := range gradeRules {
		if r.re.MatchString(text) {
			return r.grade, true
		}
	}
	return Grade{}, false
}
