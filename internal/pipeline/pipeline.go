// Package pipeline runs the end-to-end flow: crawl the configured sites,
// classify each fetched page, append accepted observations, rebuild the
// digest, and hand it to the mailer.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sturgeonlabs/caviarwatch/internal/archive"
	"github.com/sturgeonlabs/caviarwatch/internal/classify"
	"github.com/sturgeonlabs/caviarwatch/internal/config"
	"github.com/sturgeonlabs/caviarwatch/internal/crawler"
	"github.com/sturgeonlabs/caviarwatch/internal/digest"
	"github.com/sturgeonlabs/caviarwatch/internal/extract"
	"github.com/sturgeonlabs/caviarwatch/internal/logging"
	"github.com/sturgeonlabs/caviarwatch/internal/metrics"
	"github.com/sturgeonlabs/caviarwatch/internal/model"
	"github.com/sturgeonlabs/caviarwatch/internal/notify"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
	"github.com/sturgeonlabs/caviarwatch/internal/store"
)

// Pipeline owns the wired components for one deployment.
type Pipeline struct {
	cfg        config.Config
	sites      []sites.Site
	crawler    *crawler.Crawler
	classifier *classify.Classifier
	store      store.Store
	archive    archive.Sink
	mailer     notify.Mailer
	logger     *zap.Logger

	mu     sync.Mutex
	latest *digest.Digest
}

// New assembles a pipeline. archive and mailer may be nil when those
// features are not configured.
func New(
	cfg config.Config,
	siteList []sites.Site,
	cr *crawler.Crawler,
	cl *classify.Classifier,
	st store.Store,
	sink archive.Sink,
	mailer notify.Mailer,
	logger *zap.Logger,
) *Pipeline {
	if sink == nil {
		sink = archive.NoOp{}
	}
	return &Pipeline{
		cfg:        cfg,
		sites:      siteList,
		crawler:    cr,
		classifier: cl,
		store:      st,
		archive:    sink,
		mailer:     mailer,
		logger:     logger,
	}
}

// Latest returns the most recently built digest, if any.
func (p *Pipeline) Latest() *digest.Digest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// RunCrawl crawls every site, stores what the classifier accepts, then
// rebuilds the digest and emails it. A site that fails wholesale does not
// stop the run; hitting the global deadline stops crawling but still
// builds the digest from what was collected.
func (p *Pipeline) RunCrawl(ctx context.Context) (*digest.Digest, error) {
	runID := uuid.NewString()
	logger := logging.ForRun(p.logger, runID)

	if deadline := p.cfg.RunDeadline(); deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	started := time.Now()
	var accepted []model.Observation
	for _, site := range p.sites {
		if ctx.Err() != nil {
			logger.Warn("run deadline reached; skipping remaining sites",
				zap.String("next_site", site.Name))
			break
		}
		siteObs := p.crawlSite(ctx, site, runID, logger)
		accepted = append(accepted, siteObs...)
		logger.Info("site crawl finished",
			zap.String("site", site.Name),
			zap.Int("accepted", len(siteObs)))
	}

	// The run deadline bounds crawling only. Collected observations are
	// still stored, ranked, and delivered after it expires.
	finishCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		finishCtx, cancel = context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
	}

	if len(accepted) > 0 {
		if err := p.store.Append(finishCtx, accepted); err != nil {
			return nil, fmt.Errorf("append observations: %w", err)
		}
	}
	logger.Info("crawl run finished",
		zap.Int("observations", len(accepted)),
		zap.Duration("elapsed", time.Since(started)))

	d, err := p.BuildDigest(finishCtx)
	if err != nil {
		return nil, err
	}
	p.deliver(finishCtx, d, logger)
	return d, nil
}

func (p *Pipeline) crawlSite(ctx context.Context, site sites.Site, runID string, logger *zap.Logger) []model.Observation {
	var accepted []model.Observation
	err := p.crawler.CrawlSite(ctx, site, func(page model.Page) {
		if err := p.archive.SavePage(ctx, page, time.Now().UTC()); err != nil {
			logger.Warn("page archive failed", zap.String("url", page.URL), zap.Error(err))
		}
		in, err := extract.Parse(page)
		if err != nil {
			logger.Warn("page parse failed", zap.String("url", page.URL), zap.Error(err))
			return
		}
		obs, reason := p.classifier.Classify(in, site)
		if len(obs) == 0 {
			logger.Debug("page yielded no observations",
				zap.String("url", page.URL), zap.String("reason", reason))
			return
		}
		for i := range obs {
			obs[i].RunID = runID
		}
		accepted = append(accepted, obs...)
	})
	if err != nil {
		logger.Warn("site crawl aborted", zap.String("site", site.Name), zap.Error(err))
	}
	return accepted
}

// BuildDigest reconciles the store and ranks the result. It never crawls.
func (p *Pipeline) BuildDigest(ctx context.Context) (*digest.Digest, error) {
	obs, err := p.store.LatestDistinct(ctx, p.cfg.Classify.RequireSpecies)
	if err != nil {
		return nil, fmt.Errorf("latest distinct: %w", err)
	}
	movers, err := p.store.Movers(ctx, p.cfg.Digest.MoversLimit)
	if err != nil {
		return nil, fmt.Errorf("movers: %w", err)
	}

	d := digest.Build(obs, movers, digest.Options{
		TopN:        p.cfg.Digest.TopN,
		MinTinGrams: p.cfg.Classify.MinTinGrams,
		Scorer:      digest.RegionScores(p.cfg.Digest.RegionScores),
	})

	entries := 0
	for _, bucket := range d.Buckets {
		entries += len(bucket)
	}
	metrics.ObserveDigestBuild(entries, d.GeneratedAt)

	p.mu.Lock()
	p.latest = d
	p.mu.Unlock()
	return d, nil
}

// Deliver emails the digest out of band, for rebuild-and-resend flows.
func (p *Pipeline) Deliver(ctx context.Context, d *digest.Digest) {
	p.deliver(ctx, d, p.logger)
}

// deliver emails the digest. Delivery failure is logged, never fatal: the
// digest stays available through Latest and any export.
func (p *Pipeline) deliver(ctx context.Context, d *digest.Digest, logger *zap.Logger) {
	if p.mailer == nil {
		logger.Info("email not configured; skipping delivery")
		return
	}
	if err := p.mailer.SendDigest(ctx, d); err != nil {
		logger.Error("digest delivery failed", zap.Error(err))
		return
	}
	logger.Info("digest delivered")
}
