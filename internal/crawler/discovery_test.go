package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
)

func TestProductLinksHeuristic(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://shop.test/collections/all", `<html><body>
		<a href="/products/osetra">Osetra</a>
		<a href="/products/osetra">Osetra again</a>
		<a href="/cart">Cart</a>
		<a href="mailto:info@shop.test">Email</a>
		<a href="#top">Top</a>
		<a href="https://other.test/products/x">Other</a>
	</body></html>`)

	site := sites.Site{Name: "shop", AllowDomains: []string{"shop.test"}}
	links := ProductLinks(page, site, 0)
	require.Equal(t, []string{"https://shop.test/products/osetra"}, links)
}

func TestProductLinksSelectorHint(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://shop.test/store", `<html><body>
		<a class="item-card" href="/item/123">Tin</a>
		<a href="/products/not-selected">Skipped</a>
	</body></html>`)

	site := sites.Site{
		Name:         "shop",
		AllowDomains: []string{"shop.test"},
		Selectors:    sites.Selectors{ProductLink: "a.item-card"},
	}
	links := ProductLinks(page, site, 0)
	require.Equal(t, []string{"https://shop.test/item/123"}, links)
}

func TestProductLinksLimit(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://shop.test/", `<html><body>
		<a href="/products/a">a</a>
		<a href="/products/b">b</a>
		<a href="/products/c">c</a>
	</body></html>`)

	links := ProductLinks(page, sites.Site{Name: "shop"}, 2)
	require.Len(t, links, 2)
}

func TestProductLinksSubdomainAllowed(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://www.shop.test/", `<html><body>
		<a href="https://www.shop.test/products/a">a</a>
	</body></html>`)

	links := ProductLinks(page, sites.Site{Name: "shop", AllowDomains: []string{"shop.test"}}, 0)
	require.Len(t, links, 1)
}

func TestProductLinksBadBody(t *testing.T) {
	t.Parallel()

	links := ProductLinks(model.Page{URL: "://bad", Body: []byte("<a href='/products/a'>a</a>")}, sites.Site{}, 0)
	require.Nil(t, links)
}
