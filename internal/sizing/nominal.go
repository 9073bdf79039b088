package sizing

import "math"

// NominalTolerance is how far (in grams) a parsed size may sit from a
// recognized tin/jar size and still count as that size.
const NominalTolerance = 2.0

// NominalSizes are the individual tin/jar sizes sold by caviar retailers, in
// grams. 28/30 are the two common roundings of one ounce; 113/114 of four.
var NominalSizes = []float64{28, 30, 50, 100, 113, 114, 125, 250, 500, 1000}

// PreferredSizes orders nominal sizes by how useful they are as the page's
// headline size when several variants tie.
var PreferredSizes = []float64{28, 30, 50, 100, 113, 114, 125, 250}

// NearestNominal snaps grams to a recognized tin/jar size within
// NominalTolerance. The second return is false when no nominal size is close
// enough, which usually means a set/bundle listing.
func NearestNominal(grams float64) (float64, bool) {
	best := 0.0
	bestDiff := math.MaxFloat64
	for _, n := range NominalSizes {
		d := math.Abs(grams - n)
		if d < bestDiff {
			best, bestDiff = n, d
		}
	}
	if bestDiff > NominalTolerance {
		return 0, false
	}
	return best, true
}

// PickNominal chooses a headline size from the candidates discovered on a
// page. Sizes on the preferred list win in list order; otherwise the
// smallest candidate is returned.
func PickNominal(candidates []float64) (float64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	for _, pref := range PreferredSizes {
		for _, c := range candidates {
			if n, ok := NearestNominal(c); ok && n == pref {
				return pref, true
			}
		}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c < best {
			best = c
		}
	}
	return best, true
}
