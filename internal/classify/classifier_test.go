package classify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sturgeonlabs/caviarwatch/internal/extract"
	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	return New(Config{MinTinGrams: 28, RequireSpecies: true}, zap.NewNop())
}

func pageInput(t *testing.T, html string) extract.Input {
	t.Helper()
	in, err := extract.Parse(model.Page{URL: "https://shop.example/p/1", Body: []byte(html)})
	require.NoError(t, err)
	return in
}

func productPage(name, body string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body><h1>%s</h1>%s</body></html>`, name, name, body)
}

var testSite = sites.Site{Name: "Test Vendor", Region: "GA"}

func TestClassifyAcceptsStructuredData(t *testing.T) {
	html := `<html><head><title>Osetra Caviar 1oz Tin</title>
<script type="application/ld+json">
{"@type":"Product","name":"Osetra Caviar 1oz Tin",
 "offers":[{"@type":"Offer","price":"68.00","priceCurrency":"USD","availability":"https://schema.org/InStock"}]}
</script></head><body><h1>Osetra Caviar 1oz Tin</h1><button>Add to cart</button></body></html>`

	obs, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	require.Empty(t, reason)
	require.Len(t, obs, 1)

	o := obs[0]
	assert.Equal(t, "Test Vendor", o.Vendor)
	assert.Equal(t, "Osetra", o.SpeciesCommon)
	assert.Equal(t, "Acipenser gueldenstaedtii", o.SpeciesLatin)
	assert.Equal(t, 28.0, o.SizeGrams, "one ounce snaps to the 28 g nominal")
	assert.Equal(t, "1 oz / 28 g", o.SizeLabel)
	assert.Equal(t, 68.0, o.Price)
	assert.Equal(t, "USD", o.Currency)
	assert.InDelta(t, 2.43, o.PricePerGram, 0.01)
	assert.Equal(t, "GA", o.OriginRegion)
}

func TestClassifyRejectsGiftSet(t *testing.T) {
	// Accessory words fire even though size and caviar signals look valid.
	html := productPage("Caviar Tasting Gift Set — 4 x 30g", "<p>$199.00</p>")
	obs, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	assert.Nil(t, obs)
	assert.Equal(t, ReasonAccessory, reason)
}

func TestClassifyRejectsNonSturgeon(t *testing.T) {
	html := productPage("Salmon Roe Ikura 100g", "<p>$25.00 jar</p>")
	_, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	assert.Equal(t, ReasonNonSturgeon, reason)
}

func TestClassifyHacklebackIsNotExcluded(t *testing.T) {
	html := productPage("Wild Hackleback Sturgeon Caviar 30g tin", "<p>Only $45.00.</p>")
	obs, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	require.Empty(t, reason)
	require.Len(t, obs, 1)
	assert.Equal(t, "Hackleback", obs[0].SpeciesCommon)
}

func TestClassifyRequiresSpecies(t *testing.T) {
	html := productPage("Finest Caviar 30g tin", "<p>$80.00</p>")
	_, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	assert.Equal(t, ReasonNoSpecies, reason)

	// The site hint fills the gap.
	hinted := sites.Site{Name: "Hinted", DefaultSpecies: "White Sturgeon"}
	obs, reason := newClassifier(t).Classify(pageInput(t, html), hinted)
	require.Empty(t, reason)
	assert.Equal(t, "White Sturgeon", obs[0].SpeciesCommon)
	assert.Equal(t, "Acipenser transmontanus", obs[0].SpeciesLatin)

	relaxed := New(Config{MinTinGrams: 28, RequireSpecies: false}, zap.NewNop())
	obs, reason = relaxed.Classify(pageInput(t, html), testSite)
	require.Empty(t, reason)
	assert.Empty(t, obs[0].SpeciesCommon)
}

func TestClassifyVendorCanonicalization(t *testing.T) {
	html := productPage("Beluga Caviar 30g tin", "<p>$150.00</p>")

	remap := sites.Site{Name: "Remap", SpeciesAliases: map[string]string{"Beluga": "Kaluga Hybrid"}}
	obs, reason := newClassifier(t).Classify(pageInput(t, html), remap)
	require.Empty(t, reason)
	assert.Equal(t, "Kaluga Hybrid", obs[0].SpeciesCommon)
	assert.Equal(t, "Huso dauricus x Acipenser schrenckii", obs[0].SpeciesLatin)

	block := sites.Site{Name: "Block", DisallowSpecies: []string{"Beluga"}}
	_, reason = newClassifier(t).Classify(pageInput(t, html), block)
	assert.Equal(t, ReasonBadSpecies, reason)
}

func TestClassifyRejectsImplausibleSize(t *testing.T) {
	// 40 g is not near any nominal size and carries no packaging words.
	html := productPage("Osetra Caviar 40g pouch", "<p>$90.00</p>")
	_, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	assert.Equal(t, ReasonOddSize, reason)
}

func TestClassifyRejectsSanityBand(t *testing.T) {
	// $1000 for 30 g is 33.33/g (fine); $4000 for 30 g is 133/g (rejected).
	ok := productPage("Osetra Caviar 30g tin", "<p>$1000.00</p>")
	obs, reason := newClassifier(t).Classify(pageInput(t, ok), testSite)
	require.Empty(t, reason)
	require.Len(t, obs, 1)

	bad := productPage("Osetra Caviar 30g tin", "<p>$4000.00</p>")
	_, reason = newClassifier(t).Classify(pageInput(t, bad), testSite)
	assert.Equal(t, ReasonBadPPG, reason)
}

func TestClassifyRejectsSoldOut(t *testing.T) {
	html := productPage("Osetra Caviar 30g tin", "<p>$80.00</p><button>Sold Out</button>")
	_, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	assert.Equal(t, ReasonSoldOut, reason)
}

func TestClassifyRejectsBelowMinimumTin(t *testing.T) {
	c := New(Config{MinTinGrams: 28, RequireSpecies: true}, zap.NewNop())
	html := productPage("Osetra Caviar 10g tin", "<p>$30.00</p>")
	_, reason := c.Classify(pageInput(t, html), testSite)
	assert.Equal(t, ReasonOddSize, reason)
}

func TestClassifyMultiVariant(t *testing.T) {
	html := `<html><head><title>Royal Osetra Caviar</title></head><body>
<h1>Royal Osetra Caviar</h1>
<script>
var meta = {"product":{"variants":[
  {"id":1,"title":"30g Tin","price":9500,"available":true},
  {"id":2,"title":"125g Jar","price":32500,"available":true}
]}};
</script></body></html>`
	obs, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	require.Empty(t, reason)
	require.Len(t, obs, 2, "one observation per legitimate variant size")

	assert.Equal(t, 30.0, obs[0].SizeGrams)
	assert.Equal(t, 95.0, obs[0].Price)
	assert.Equal(t, "Royal", obs[0].Grade)
	assert.Equal(t, 2, obs[0].GradeRank)

	assert.Equal(t, 125.0, obs[1].SizeGrams)
	assert.Equal(t, 325.0, obs[1].Price)
}

func TestClassifyPrefersTinSizeAmongPageSizes(t *testing.T) {
	// The body mentions the bulk weight first, but the lone price belongs
	// to the preferred tin size, not the 250 g option.
	html := productPage("Kaluga Hybrid Caviar",
		"<p>Available as a 250 g bulk pouch or the classic 30 g tin. $95.00</p>")
	obs, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	require.Empty(t, reason)
	require.Len(t, obs, 1)
	assert.Equal(t, 30.0, obs[0].SizeGrams)
	assert.Equal(t, 95.0, obs[0].Price)
}

func TestClassifyFreeTextFallback(t *testing.T) {
	html := productPage("Siberian Caviar 50g jar", "<p>Fresh from the farm. $88.00</p>")
	obs, reason := newClassifier(t).Classify(pageInput(t, html), testSite)
	require.Empty(t, reason)
	require.Len(t, obs, 1)
	assert.Equal(t, 50.0, obs[0].SizeGrams)
	assert.Equal(t, 1.76, obs[0].PricePerGram)
}
