package digest

import "github.com/sturgeonlabs/caviarwatch/internal/model"

// ProximityScorer scores a vendor's origin region relative to the
// recipient. Lower is closer. It is an input to ranking, not a constant,
// so a deployment can swap in its own geography.
type ProximityScorer interface {
	Score(region string) int
}

// RegionScores is a lookup-table ProximityScorer. Regions absent from the
// table score UnknownRegionScore, which sorts them after every known one.
type RegionScores map[string]int

// UnknownRegionScore is the distance assigned to unlisted regions.
const UnknownRegionScore = 50

// Score implements ProximityScorer.
func (r RegionScores) Score(region string) int {
	if s, ok := r[region]; ok {
		return s
	}
	return UnknownRegionScore
}

// rankLess orders observations within a bucket: better grade first, then
// cheaper per gram, then closer vendor, then vendor name.
func rankLess(a, b model.Observation, scorer ProximityScorer) bool {
	if a.GradeRank != b.GradeRank {
		return a.GradeRank < b.GradeRank
	}
	if a.PricePerGram != b.PricePerGram {
		return a.PricePerGram < b.PricePerGram
	}
	if scorer != nil {
		sa, sb := scorer.Score(a.OriginRegion), scorer.Score(b.OriginRegion)
		if sa != sb {
			return sa < sb
		}
	}
	return a.Vendor < b.Vendor
}
