// Package classify turns extracted candidate offers into validated price
// observations. It is a fixed sequential filter chain: any stage may reject
// the page (or a single variant) with a reason; rejections are skips, never
// errors, so one bad page cannot abort a batch.
package classify

import (
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/sturgeonlabs/caviarwatch/internal/extract"
	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/pattern"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
	"github.com/sturgeonlabs/caviarwatch/internal/sizing"
)

// Rejection reasons, used for logging and metrics.
const (
	ReasonAccessory   = "accessory"
	ReasonNonSturgeon = "non_sturgeon"
	ReasonNotCaviar   = "not_caviar"
	ReasonNoSpecies   = "no_species"
	ReasonBadSpecies  = "species_disallowed"
	ReasonNoSize      = "no_size"
	ReasonOddSize     = "implausible_size"
	ReasonNoPrice     = "no_price"
	ReasonSoldOut     = "sold_out"
	ReasonBadPPG      = "price_per_gram_out_of_band"
)

var packagingRe = regexp.MustCompile(`(?i)\b(?:tin|jar)s?\b`)

// Config holds the classifier's tunables.
type Config struct {
	// MinTinGrams is the smallest individual unit worth tracking; anything
	// below it is dropped before bucketing.
	MinTinGrams float64
	// MaxPPG caps the plausible price per gram. Anything above it is a
	// parse artifact (a case price or a bundle), not a retail tin.
	MaxPPG float64
	// RequireSpecies rejects pages where no sturgeon species can be
	// resolved. Off is a debugging relaxation, not a production mode.
	RequireSpecies bool
}

// Classifier applies the filter chain to one page at a time.
type Classifier struct {
	cfg    Config
	chain  []extract.Extractor
	logger *zap.Logger
}

// New builds a Classifier with the default extractor chain.
func New(cfg Config, logger *zap.Logger) *Classifier {
	if cfg.MinTinGrams <= 0 {
		cfg.MinTinGrams = 28
	}
	if cfg.MaxPPG <= 0 {
		cfg.MaxPPG = sizing.MaxPlausiblePPG
	}
	return &Classifier{cfg: cfg, chain: extract.DefaultChain(), logger: logger}
}

// Classify runs the chain against a parsed page. It returns the accepted
// observations (usually one; one per variant size for legitimate multi-size
// pages) or nil plus the reason the page was rejected.
func (c *Classifier) Classify(in extract.Input, site sites.Site) ([]model.Observation, string) {
	name := in.ProductName()
	if name == "" {
		return c.reject(in, ReasonNotCaviar)
	}
	pageText := name + " " + in.BodyText

	// Stages 1-3: cheap text vetoes before any extraction work.
	if pattern.IsAccessory(name) || pattern.IsAccessory(in.BodyText) {
		return c.reject(in, ReasonAccessory)
	}
	if pattern.MentionsNonSturgeon(name) || pattern.MentionsNonSturgeon(in.BodyText) {
		return c.reject(in, ReasonNonSturgeon)
	}
	if !pattern.HasCaviarWord(pageText) {
		if _, ok := pattern.MatchSpecies(pageText); !ok {
			return c.reject(in, ReasonNotCaviar)
		}
	}

	// Stages 4-5: species, with the vendor canonicalization map applied.
	species, reason := c.resolveSpecies(in, site, name)
	if reason != "" {
		return c.reject(in, reason)
	}

	// Stage 6: grade is optional; absence ranks last.
	grade := pattern.Grade{Rank: pattern.UngradedRank, Label: ""}
	if g, ok := pattern.MatchGrade(pageText); ok {
		grade = g
	}

	// Stages 7-12 run per extractor; the first extractor whose offers
	// survive wins.
	lastReason := ReasonNoPrice
	for _, ex := range c.chain {
		offers := ex.Extract(in)
		if len(offers) == 0 {
			continue
		}
		obs, r := c.classifyOffers(in, site, name, species, grade, offers)
		if len(obs) > 0 {
			ObservationsAccepted.Add(float64(len(obs)))
			return obs, ""
		}
		if r != "" {
			lastReason = r
		}
	}
	return c.reject(in, lastReason)
}

func (c *Classifier) reject(in extract.Input, reason string) ([]model.Observation, string) {
	RejectionsTotal.WithLabelValues(reason).Inc()
	c.logger.Debug("page rejected",
		zap.String("url", in.Page.URL),
		zap.String("reason", reason))
	return nil, reason
}

// resolveSpecies tries, in priority order: product name, page text, the
// structured-data blob (descriptions are not always rendered into the
// body), and finally the site's default-species hint.
func (c *Classifier) resolveSpecies(in extract.Input, site sites.Site, name string) (pattern.Species, string) {
	sp, ok := pattern.MatchSpecies(name)
	if !ok {
		sp, ok = pattern.MatchSpecies(in.BodyText)
	}
	if !ok {
		for _, offer := range (&extract.StructuredData{}).Extract(in) {
			if sp, ok = pattern.MatchSpecies(offer.SizeText); ok {
				break
			}
		}
	}
	if !ok && site.DefaultSpecies != "" {
		if latin, known := pattern.SpeciesLatin(site.DefaultSpecies); known {
			sp, ok = pattern.Species{Common: site.DefaultSpecies, Latin: latin}, true
		}
	}
	if !ok {
		if c.cfg.RequireSpecies {
			return pattern.Species{}, ReasonNoSpecies
		}
		return pattern.Species{}, ""
	}

	// Vendor canonicalization: a marketing label known to be wrong for this
	// vendor is remapped; if no remap exists and the label is disallowed,
	// the page is rejected rather than stored under a false species.
	if canonical, remap := site.SpeciesAliases[sp.Common]; remap {
		latin, known := pattern.SpeciesLatin(canonical)
		if !known {
			return pattern.Species{}, ReasonBadSpecies
		}
		return pattern.Species{Common: canonical, Latin: latin}, ""
	}
	if site.SpeciesDisallowed(sp.Common) {
		return pattern.Species{}, ReasonBadSpecies
	}
	return sp, ""
}

func (c *Classifier) classifyOffers(
	in extract.Input,
	site sites.Site,
	name string,
	species pattern.Species,
	grade pattern.Grade,
	offers []model.CandidateOffer,
) ([]model.Observation, string) {
	sizes, reason := c.resolveSizes(in, name, offers)
	if reason != "" {
		return nil, reason
	}

	var out []model.Observation
	lastReason := ""
	for _, grams := range sizes {
		obs, r := c.buildObservation(in, site, name, species, grade, grams, offers)
		if r != "" {
			lastReason = r
			continue
		}
		out = append(out, obs)
	}
	if len(out) == 0 {
		return nil, lastReason
	}
	return out, ""
}

// resolveSizes finds the individual-unit sizes this page sells. Variant
// sizes win when present; otherwise the page-level size from name or body
// must snap to a nominal tin/jar size or carry explicit packaging words.
func (c *Classifier) resolveSizes(in extract.Input, name string, offers []model.CandidateOffer) ([]float64, string) {
	seen := map[float64]struct{}{}
	var sizes []float64
	for _, offer := range offers {
		grams, ok := sizing.ParseSize(offer.Label)
		if !ok {
			continue
		}
		nominal, ok := sizing.NearestNominal(grams)
		if !ok {
			continue
		}
		if _, dup := seen[nominal]; dup {
			continue
		}
		seen[nominal] = struct{}{}
		sizes = append(sizes, nominal)
	}
	if len(sizes) > 0 {
		sort.Float64s(sizes)
		return sizes, ""
	}

	// Page-level fallback. The name or body may mention several weights
	// (a tin next to a bulk option); the preferred-size list picks the one
	// the lone page price belongs to.
	candidates := sizing.ParseSizes(name)
	if len(candidates) == 0 {
		candidates = sizing.ParseSizes(in.BodyText)
	}
	grams, ok := sizing.PickNominal(candidates)
	if !ok {
		return nil, ReasonNoSize
	}
	if nominal, near := sizing.NearestNominal(grams); near {
		return []float64{nominal}, ""
	}
	pageTagged := packagingRe.MatchString(name) || packagingRe.MatchString(in.BodyText)
	if !pageTagged {
		// Not an individual tin/jar: a set, bundle, or junk size.
		return nil, ReasonOddSize
	}
	if grams < c.cfg.MinTinGrams {
		return nil, ReasonOddSize
	}
	return []float64{grams}, ""
}

func (c *Classifier) buildObservation(
	in extract.Input,
	site sites.Site,
	name string,
	species pattern.Species,
	grade pattern.Grade,
	grams float64,
	offers []model.CandidateOffer,
) (model.Observation, string) {
	if grams < c.cfg.MinTinGrams {
		return model.Observation{}, ReasonOddSize
	}

	offer, ok := selectOffer(offers, grams)
	if !ok || offer.Price <= 0 {
		return model.Observation{}, ReasonNoPrice
	}
	if extract.SoldOut(in, []model.CandidateOffer{offer}) {
		return model.Observation{}, ReasonSoldOut
	}

	ppg := sizing.PricePerGram(offer.Price, grams)
	if ppg <= 0 || ppg > c.cfg.MaxPPG {
		return model.Observation{}, ReasonBadPPG
	}

	currency := offer.Currency
	if currency == "" {
		currency = "USD"
	}
	return model.Observation{
		Vendor:        site.Name,
		URL:           in.Page.URL,
		ProductName:   name,
		SpeciesCommon: species.Common,
		SpeciesLatin:  species.Latin,
		Grade:         grade.Label,
		GradeRank:     grade.Rank,
		Currency:      currency,
		Price:         offer.Price,
		SizeGrams:     grams,
		SizeLabel:     sizing.Label(grams),
		PricePerGram:  ppg,
		OriginRegion:  site.Region,
	}, ""
}

// selectOffer picks the offer scoped to the given size: first one whose
// label or size text mentions the size by token, falling back to the
// lowest-priced offer that has a price at all.
func selectOffer(offers []model.CandidateOffer, grams float64) (model.CandidateOffer, bool) {
	var matched []model.CandidateOffer
	for _, offer := range offers {
		if sizing.MatchesSize(offer.Label, grams) || sizing.MatchesSize(offer.SizeText, grams) {
			matched = append(matched, offer)
		}
	}
	pool := matched
	if len(pool) == 0 {
		pool = offers
	}
	best := model.CandidateOffer{}
	found := false
	for _, offer := range pool {
		if offer.Price <= 0 {
			continue
		}
		if !found || offer.Price < best.Price {
			best, found = offer, true
		}
	}
	return best, found
}
