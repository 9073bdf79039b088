package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
)

// Crawler walks one site at a time: listing pages for discovery, then the
// seed and discovered product pages, within the site's page cap and
// deadline.
type Crawler struct {
	cfg      Config
	fetcher  Fetcher
	robots   RobotsPolicy
	retry    RetryPolicy
	detector Detector
	renderer Renderer
	logger   *zap.Logger
}

// New assembles a crawler. renderer may be nil when headless is disabled.
func New(cfg Config, fetcher Fetcher, robots RobotsPolicy, retry RetryPolicy, detector Detector, renderer Renderer, logger *zap.Logger) *Crawler {
	return &Crawler{
		cfg:      cfg.withDefaults(),
		fetcher:  fetcher,
		robots:   robots,
		retry:    retry,
		detector: detector,
		renderer: renderer,
		logger:   logger,
	}
}

// CrawlSite fetches the site's product pages and hands each one to visit.
// Listing pages and discovered links carry their own caps, separate from
// the product page cap. It returns early when a cap, the site deadline, or
// the run context expires; pages already fetched are never discarded.
func (c *Crawler) CrawlSite(ctx context.Context, site sites.Site, visit func(model.Page)) error {
	siteCtx := ctx
	if c.cfg.SiteDeadline > 0 {
		var cancel context.CancelFunc
		siteCtx, cancel = context.WithTimeout(ctx, c.cfg.SiteDeadline)
		defer cancel()
	}

	tracker := &visitTracker{}
	budget := c.cfg.MaxPagesPerSite

	frontier := make([]string, 0, len(site.SeedProductURLs)+c.cfg.MaxLinksPerSite)
	for _, raw := range site.SeedProductURLs {
		if normalized, err := NormalizeURL(raw); err == nil {
			frontier = append(frontier, normalized)
		} else {
			c.logger.Warn("skipping malformed seed url", zap.String("site", site.Name), zap.String("url", raw))
		}
	}

	discovered := 0
	for i, startURL := range site.StartURLs {
		if siteCtx.Err() != nil {
			break
		}
		if i >= c.cfg.MaxListingPages {
			c.logger.Info("listing page cap reached",
				zap.String("site", site.Name), zap.Int("cap", c.cfg.MaxListingPages))
			break
		}
		if discovered >= c.cfg.MaxLinksPerSite {
			c.logger.Info("site link cap reached",
				zap.String("site", site.Name), zap.Int("cap", c.cfg.MaxLinksPerSite))
			break
		}
		page, err := c.fetchPage(siteCtx, startURL, tracker)
		if err != nil {
			c.logger.Warn("listing page fetch failed",
				zap.String("site", site.Name), zap.String("url", startURL), zap.Error(err))
			continue
		}
		links := ProductLinks(page, site, c.cfg.MaxLinksPerSite-discovered)
		discovered += len(links)
		c.logger.Debug("discovered product links",
			zap.String("site", site.Name), zap.String("url", startURL), zap.Int("count", len(links)))
		frontier = append(frontier, links...)
		pause(siteCtx, c.cfg.PolitenessDelay)
	}

	fetched := 0
	for _, productURL := range frontier {
		if fetched >= budget {
			c.logger.Info("site page cap reached", zap.String("site", site.Name), zap.Int("cap", budget))
			break
		}
		if siteCtx.Err() != nil {
			c.logger.Warn("site deadline reached", zap.String("site", site.Name), zap.Int("fetched", fetched))
			break
		}
		page, err := c.fetchPage(siteCtx, productURL, tracker)
		if err != nil {
			if errors.Is(err, errAlreadyVisited) {
				continue
			}
			FetchErrors.Inc()
			c.logger.Warn("product page fetch failed",
				zap.String("site", site.Name), zap.String("url", productURL), zap.Error(err))
			pause(siteCtx, c.cfg.PolitenessDelay)
			continue
		}
		fetched++
		visit(page)
		pause(siteCtx, c.cfg.PolitenessDelay)
	}

	if err := siteCtx.Err(); err != nil && ctx.Err() != nil {
		return fmt.Errorf("crawl %s: %w", site.Name, ctx.Err())
	}
	return nil
}

var errAlreadyVisited = errors.New("url already visited")

// fetchPage runs the robots check, the retry loop, and the headless
// escalation for one URL.
func (c *Crawler) fetchPage(ctx context.Context, rawURL string, tracker *visitTracker) (model.Page, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return model.Page{}, err
	}
	if !tracker.MarkIfNew(normalized) {
		return model.Page{}, errAlreadyVisited
	}
	if !c.robots.Allowed(ctx, normalized) {
		RobotsDenied.Inc()
		return model.Page{}, fmt.Errorf("robots.txt disallows %s", normalized)
	}

	var page model.Page
	for attempt := 0; ; attempt++ {
		page, err = c.fetcher.Fetch(ctx, normalized)
		if err == nil {
			break
		}
		if !c.retry.ShouldRetry(err, attempt) {
			return model.Page{}, err
		}
		delay := c.retry.Backoff(attempt)
		c.logger.Debug("retrying fetch",
			zap.String("url", normalized), zap.Int("attempt", attempt+1), zap.Duration("backoff", delay))
		pause(ctx, delay)
		if ctx.Err() != nil {
			return model.Page{}, ctx.Err()
		}
	}

	if c.renderer != nil && c.detector != nil && c.detector.NeedsJS(ctx, page) {
		rendered, renderErr := c.renderer.Render(ctx, normalized)
		if renderErr != nil {
			c.logger.Warn("headless render failed; using static body",
				zap.String("url", normalized), zap.Error(renderErr))
		} else {
			HeadlessRenders.Inc()
			page = rendered
		}
	}

	PagesFetched.Inc()
	return page, nil
}
