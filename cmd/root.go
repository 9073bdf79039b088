// Package cmd defines and implements the CLI commands for the caviarwatch
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sturgeonlabs/caviarwatch/internal/archive"
	"github.com/sturgeonlabs/caviarwatch/internal/classify"
	"github.com/sturgeonlabs/caviarwatch/internal/config"
	"github.com/sturgeonlabs/caviarwatch/internal/crawler"
	"github.com/sturgeonlabs/caviarwatch/internal/logging"
	"github.com/sturgeonlabs/caviarwatch/internal/notify"
	"github.com/sturgeonlabs/caviarwatch/internal/pipeline"
	"github.com/sturgeonlabs/caviarwatch/internal/sites"
	"github.com/sturgeonlabs/caviarwatch/internal/store"
)

var cfgFile string

// appKeyType is the key for storing the app in the command context.
type appKeyType string

const appKey appKeyType = "app"

// app bundles the wired services the subcommands share.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	sites    []sites.Site
	store    store.Store
	pipeline *pipeline.Pipeline
	renderer crawler.Renderer
}

// newApp is the application factory, a variable so tests can swap in a
// stub.
var newApp = buildApp

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	siteList := sites.Load(cfg.Crawler.SitesFile, logger)

	var st store.Store
	if cfg.Store.DSN != "" {
		st, err = store.NewPostgres(ctx, store.PostgresConfig{
			DSN:             cfg.Store.DSN,
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: cfg.StoreConnLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
	} else {
		logger.Warn("store.dsn not set; using in-memory store, observations will not persist")
		st = store.NewMemory()
	}

	crawlCfg := crawler.Config{
		UserAgent:           cfg.Crawler.UserAgent,
		RequestTimeout:      cfg.PageTimeout(),
		PolitenessDelay:     cfg.PolitenessDelay(),
		MaxPagesPerSite:     cfg.Crawler.MaxPagesPerSite,
		MaxLinksPerSite:     cfg.Crawler.MaxLinksPerSite,
		MaxListingPages:     cfg.Crawler.MaxListingPages,
		SiteDeadline:        cfg.SiteDeadline(),
		RespectRobots:       !cfg.Crawler.IgnoreRobots,
		MaxRetries:          cfg.HTTP.MaxRetries,
		BackoffInitial:      cfg.BackoffInitial(),
		BackoffMax:          cfg.BackoffMax(),
		HeadlessEnabled:     cfg.Headless.Enabled,
		HeadlessMaxParallel: cfg.Headless.MaxParallel,
		HeadlessNavTimeout:  cfg.HeadlessNavTimeout(),
		HeadlessMinBytes:    cfg.Headless.MinHTMLBytes,
	}

	fetcher, err := crawler.NewCollyFetcher(crawlCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	robots := crawler.NewRobotsEnforcer(crawlCfg.RespectRobots, crawlCfg.UserAgent, logger)
	retry := crawler.NewExponentialRetryPolicy(crawlCfg)

	var (
		detector crawler.Detector
		renderer crawler.Renderer
	)
	if cfg.Headless.Enabled {
		detector = crawler.NewHeuristicDetector(crawlCfg.HeadlessMinBytes)
		renderer, err = crawler.NewChromedpRenderer(crawlCfg, logger)
		switch {
		case err == nil:
		case errors.Is(err, crawler.ErrRendererDisabled):
			logger.Warn("renderer disabled despite feature flag; using static fetches only")
			detector, renderer = nil, nil
		default:
			st.Close()
			return nil, fmt.Errorf("init renderer: %w", err)
		}
	}

	sink, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	var mailer notify.Mailer
	if cfg.Email.Host != "" {
		mailer, err = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init mailer: %w", err)
		}
	}

	cr := crawler.New(crawlCfg, fetcher, robots, retry, detector, renderer, logger)
	cl := classify.New(classify.Config{
		MinTinGrams:    cfg.Classify.MinTinGrams,
		MaxPPG:         cfg.Classify.MaxPPG,
		RequireSpecies: cfg.Classify.RequireSpecies,
	}, logger)

	p := pipeline.New(cfg, siteList, cr, cl, st, sink, mailer, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		sites:    siteList,
		store:    st,
		pipeline: p,
		renderer: renderer,
	}, nil
}

func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archive.Sink, error) {
	switch {
	case cfg.Archive.GCSBucket != "":
		sink, err := archive.NewGCS(ctx, cfg.Archive.GCSBucket, cfg.Archive.Prefix, logger)
		if err != nil {
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return sink, nil
	case cfg.Archive.Dir != "":
		sink, err := archive.NewLocal(cfg.Archive.Dir, cfg.Archive.Prefix)
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		return sink, nil
	default:
		return nil, nil
	}
}

// Close releases services in reverse dependency order.
func (a *app) Close() {
	if a.renderer != nil {
		if err := a.renderer.Close(context.Background()); err != nil {
			a.logger.Warn("renderer close failed", zap.Error(err))
		}
	}
	a.store.Close()
	_ = a.logger.Sync()
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caviarwatch",
		Short: "Tracks retail caviar prices and emails a ranked digest.",
		Long: `caviarwatch crawls a configured set of caviar retailers, extracts
normalized price observations from their product pages, stores them over
time, and builds a ranked digest of the best prices per tin size.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches the environment)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newDigestCmd())
	cmd.AddCommand(newSitesCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app, error) {
	appInstance, ok := ctx.Value(appKey).(*app)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "caviarwatch: %v\n", err)
		os.Exit(1)
	}
}
