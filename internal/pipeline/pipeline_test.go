package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sturgeonlabs/caviarwatch/internal/classify"
	"github.com/sturgeonlabs/caviarwatch/internal/config"
	"github.com/sturgeonlabs/caviarwatch/internal/crawler"
	"github.com/sturgeonlabs/caviarwatch/internal/digest"
	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/notify"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
	"github.com/sturgeonlabs/caviarwatch/internal/store"
)

const osetraPage = `<html>
<head>
<title>Royal Osetra Caviar</title>
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Royal Osetra Caviar",
  "description": "Acipenser gueldenstaedtii, 30 g tin",
  "offers": {"@type": "Offer", "price": "95.00", "priceCurrency": "USD", "availability": "https://schema.org/InStock"}
}
</script>
</head>
<body><h1>Royal Osetra Caviar</h1><p>A 30 g tin of osetra caviar.</p></body>
</html>`

const giftSetPage = `<html>
<head><title>Caviar Gift Set</title></head>
<body><h1>Caviar Gift Set</h1><p>Includes a mother of pearl spoon. $150.00</p></body>
</html>`

type mapFetcher struct {
	pages map[string]string
}

func (f mapFetcher) Fetch(_ context.Context, rawURL string) (model.Page, error) {
	body, ok := f.pages[rawURL]
	if !ok {
		return model.Page{}, &crawler.StatusError{URL: rawURL, StatusCode: 404}
	}
	return model.Page{URL: rawURL, FinalURL: rawURL, StatusCode: 200, Body: []byte(body)}, nil
}

type captureMailer struct {
	sent *digest.Digest
}

func (m *captureMailer) SendDigest(_ context.Context, d *digest.Digest) error {
	m.sent = d
	return nil
}

func testPipeline(t *testing.T, pages map[string]string, siteList []sites.Site, mailer notify.Mailer) (*Pipeline, *store.Memory) {
	t.Helper()
	logger := zap.NewNop()
	cfg, err := config.Load("")
	require.NoError(t, err)

	crawlCfg := crawler.Config{MaxPagesPerSite: 10}
	cr := crawler.New(crawlCfg, mapFetcher{pages: pages},
		crawler.NewRobotsEnforcer(false, crawlCfg.UserAgent, logger),
		crawler.NewExponentialRetryPolicy(crawlCfg),
		nil, nil, logger)

	cl := classify.New(classify.Config{
		MinTinGrams:    cfg.Classify.MinTinGrams,
		MaxPPG:         cfg.Classify.MaxPPG,
		RequireSpecies: cfg.Classify.RequireSpecies,
	}, logger)

	mem := store.NewMemory()
	return New(cfg, siteList, cr, cl, mem, nil, mailer, logger), mem
}

func TestRunCrawlEndToEnd(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://shop.test/products/osetra":   osetraPage,
		"https://shop.test/products/gift-set": giftSetPage,
	}
	siteList := []sites.Site{{
		Name: "Shop Test",
		SeedProductURLs: []string{
			"https://shop.test/products/osetra",
			"https://shop.test/products/gift-set",
		},
	}}
	mailer := &captureMailer{}
	p, mem := testPipeline(t, pages, siteList, mailer)

	d, err := p.RunCrawl(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)

	require.Equal(t, 1, mem.Len())

	entries := d.Buckets[digest.ForTwo]
	require.Len(t, entries, 1)
	require.Equal(t, "Royal Osetra Caviar", entries[0].ProductName)
	require.Equal(t, "Osetra", entries[0].SpeciesCommon)
	require.Equal(t, "Royal", entries[0].Grade)
	require.Equal(t, 30.0, entries[0].SizeGrams)
	require.NotEmpty(t, entries[0].RunID)

	require.Same(t, d, p.Latest())
	require.Same(t, d, mailer.sent)
}

func TestRunCrawlEmptyRunStillBuildsDigest(t *testing.T) {
	t.Parallel()

	siteList := []sites.Site{{
		Name:            "Shop Test",
		SeedProductURLs: []string{"https://shop.test/products/missing"},
	}}
	mailer := &captureMailer{}
	p, mem := testPipeline(t, map[string]string{}, siteList, mailer)

	d, err := p.RunCrawl(context.Background())
	require.NoError(t, err)
	require.True(t, d.Empty())
	require.Equal(t, 0, mem.Len())
	require.Same(t, d, mailer.sent)
}

func TestBuildDigestDoesNotCrawl(t *testing.T) {
	t.Parallel()

	p, mem := testPipeline(t, map[string]string{}, nil, nil)
	require.NoError(t, mem.Append(context.Background(), []model.Observation{{
		Vendor:        "Imperia",
		URL:           "https://x.com/a",
		ProductName:   "Kaluga Hybrid Caviar",
		SpeciesCommon: "Kaluga Hybrid",
		Currency:      "USD",
		Price:         130,
		SizeGrams:     50,
		SizeLabel:     "1.8 oz / 50 g",
		PricePerGram:  2.6,
	}}))

	d, err := p.BuildDigest(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Buckets[digest.ForTwo], 1)
	require.Same(t, d, p.Latest())
}
