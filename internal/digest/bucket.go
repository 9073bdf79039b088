package digest

// SizeBucket groups tins by how far they stretch at the table.
type SizeBucket string

const (
	ForTwo   SizeBucket = "For Two"
	ForFour  SizeBucket = "For Four"
	Specials SizeBucket = "Specials"
	Bulk     SizeBucket = "Bulk"
)

// BucketOrder is the rendering order for digests.
var BucketOrder = []SizeBucket{ForTwo, ForFour, Specials, Bulk}

// BucketForSize maps a net weight to its bucket. Weights below minTinGrams
// are excluded from ranking entirely, so ok is false for them; there is no
// catch-all bucket.
func BucketForSize(grams, minTinGrams float64) (SizeBucket, bool) {
	if grams < minTinGrams {
		return "", false
	}
	switch {
	case grams <= 50:
		return ForTwo, true
	case grams <= 110:
		return ForFour, true
	case grams <= 260:
		return Specials, true
	default:
		return Bulk, true
	}
}
