package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

func parsePage(t *testing.T, html string) Input {
	t.Helper()
	in, err := Parse(model.Page{URL: "https://shop.example/product", Body: []byte(html)})
	require.NoError(t, err)
	return in
}

const jsonLDPage = `<html><head><title>Osetra Caviar | Shop</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [{
    "@type": "Product",
    "name": "Osetra Caviar 1oz Tin",
    "description": "Classic Russian Osetra.",
    "offers": [
      {"@type": "Offer", "name": "1 oz", "price": "68.00", "priceCurrency": "USD", "availability": "https://schema.org/InStock"},
      {"@type": "Offer", "name": "125 g", "price": 250, "priceCurrency": "USD", "availability": "https://schema.org/InStock"}
    ]
  }]
}
</script></head><body><h1>Osetra Caviar 1oz Tin</h1></body></html>`

func TestStructuredDataExtract(t *testing.T) {
	in := parsePage(t, jsonLDPage)
	offers := (&StructuredData{}).Extract(in)
	require.Len(t, offers, 2)

	assert.Equal(t, "1 oz", offers[0].Label)
	assert.Equal(t, 68.0, offers[0].Price)
	assert.Equal(t, "USD", offers[0].Currency)
	assert.False(t, AvailabilityNegative(offers[0].Availability))

	assert.Equal(t, "125 g", offers[1].Label)
	assert.Equal(t, 250.0, offers[1].Price)
}

func TestStructuredDataAggregateOffer(t *testing.T) {
	in := parsePage(t, `<html><head><script type="application/ld+json">
	{"@type":"Product","name":"Kaluga Hybrid Caviar 50g",
	 "offers":{"@type":"AggregateOffer","lowPrice":"95.00","highPrice":"410.00","priceCurrency":"USD"}}
	</script></head><body></body></html>`)
	offers := (&StructuredData{}).Extract(in)
	require.Len(t, offers, 1)
	assert.Equal(t, 95.0, offers[0].Price)
	assert.Equal(t, "USD", offers[0].Currency)
}

func TestStructuredDataIgnoresMalformedJSON(t *testing.T) {
	in := parsePage(t, `<html><head><script type="application/ld+json">{notjson</script></head><body></body></html>`)
	assert.Empty(t, (&StructuredData{}).Extract(in))
}

const shopifyPage = `<html><head><title>Royal Osetra</title></head><body>
<h1>Royal Osetra Caviar</h1>
<script>
var meta = {"product":{"id":1,"variants":[
  {"id":11,"title":"30g Tin","price":9500,"available":true},
  {"id":12,"title":"125g Jar","price":32500,"available":false},
  {"id":13,"title":"Gift Wrap","price":500,"available":true}
]}};
</script>
</body></html>`

func TestShopifyVariants(t *testing.T) {
	in := parsePage(t, shopifyPage)
	offers := (&PlatformVariant{}).Extract(in)
	require.Len(t, offers, 2, "the size-less gift wrap variant is filtered")

	assert.Equal(t, "30g Tin", offers[0].Label)
	assert.Equal(t, 95.0, offers[0].Price, "minor units converted")
	require.NotNil(t, offers[0].Available)
	assert.True(t, *offers[0].Available)

	assert.Equal(t, 325.0, offers[1].Price)
	require.NotNil(t, offers[1].Available)
	assert.False(t, *offers[1].Available)
}

func TestWooCommerceVariations(t *testing.T) {
	html := `<html><body><h1>Siberian Caviar</h1>
	<form data-product_variations='[{"display_price":88,"is_in_stock":true,"attributes":{"attribute_size":"50 g"}},{"display_price":160,"is_in_stock":true,"attributes":{"attribute_size":"100 g"}}]'></form>
	</body></html>`
	in := parsePage(t, html)
	offers := (&PlatformVariant{}).Extract(in)
	require.Len(t, offers, 2)
	assert.Equal(t, 88.0, offers[0].Price, "display prices are major units")
	assert.Contains(t, offers[0].SizeText, "50 g")
}

func TestFreeTextFallback(t *testing.T) {
	html := `<html><head><title>White Sturgeon Caviar 50g</title></head>
	<body><h1>White Sturgeon Caviar 50g</h1><p>A delicacy. Only $120.00 while stocks last.</p></body></html>`
	in := parsePage(t, html)
	offers := (&FreeText{}).Extract(in)
	require.Len(t, offers, 1)
	assert.Equal(t, 120.0, offers[0].Price)
	assert.Equal(t, "USD", offers[0].Currency)
	assert.Equal(t, "White Sturgeon Caviar 50g", offers[0].SizeText, "size found in name, body not needed")
}

func TestFreeTextOGMeta(t *testing.T) {
	html := `<html><head>
	<meta property="og:price:amount" content="75.00">
	<meta property="og:price:currency" content="GBP">
	<title>Sevruga 30g</title></head><body><h1>Sevruga 30g</h1></body></html>`
	in := parsePage(t, html)
	offers := (&FreeText{}).Extract(in)
	require.Len(t, offers, 1)
	assert.Equal(t, 75.0, offers[0].Price)
	assert.Equal(t, "GBP", offers[0].Currency)
}

func TestFreeTextNoPrice(t *testing.T) {
	in := parsePage(t, `<html><body><h1>Caviar 30g</h1><p>call us for pricing</p></body></html>`)
	assert.Empty(t, (&FreeText{}).Extract(in))
}

func TestSoldOutDetection(t *testing.T) {
	in := parsePage(t, `<html><body><h1>Beluga 30g</h1><button>Sold Out</button></body></html>`)
	assert.True(t, SoldOut(in, nil))

	in = parsePage(t, `<html><body><h1>Beluga 30g</h1><p>This item is currently unavailable.</p></body></html>`)
	assert.True(t, SoldOut(in, nil))

	in = parsePage(t, `<html><body><h1>Beluga 30g</h1><button>Add to cart</button></body></html>`)
	assert.False(t, SoldOut(in, nil))

	assert.True(t, SoldOut(in, []model.CandidateOffer{{Availability: "https://schema.org/OutOfStock"}}))
	assert.False(t, SoldOut(in, []model.CandidateOffer{{Availability: "https://schema.org/InStock"}}))
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `[{"a":"b]"}]`, extractJSONArray(`[{"a":"b]"}] trailing`))
	assert.Equal(t, "", extractJSONArray(`[1,2`))
	assert.Equal(t, `{"x":1}`, extractJSONObject(`{"x":1},"next":2`))
}

func TestDefaultChainOrder(t *testing.T) {
	chain := DefaultChain()
	require.Len(t, chain, 3)
	assert.Equal(t, SourceStructuredData, chain[0].Name())
	assert.Equal(t, SourcePlatformVariant, chain[1].Name())
	assert.Equal(t, SourceFreeText, chain[2].Name())
}
