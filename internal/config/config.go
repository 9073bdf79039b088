// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Store    StoreConfig    `mapstructure:"store"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Email    EmailConfig    `mapstructure:"email"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs frontier and politeness behavior.
type CrawlerConfig struct {
	UserAgent          string `mapstructure:"user_agent"`
	SitesFile          string `mapstructure:"sites_file"`
	DelaySeconds       int    `mapstructure:"delay_seconds"`
	IgnoreRobots       bool   `mapstructure:"ignore_robots"`
	MaxPagesPerSite    int    `mapstructure:"max_pages_per_site"`
	MaxLinksPerSite    int    `mapstructure:"max_links_per_site"`
	MaxListingPages    int    `mapstructure:"max_listing_pages_per_site"`
	SiteDeadlineSec    int    `mapstructure:"site_deadline_seconds"`
	RunDeadlineMinutes int    `mapstructure:"run_deadline_minutes"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// HeadlessConfig configures the JS rendering escalation path.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	MinHTMLBytes  int  `mapstructure:"min_html_bytes"`
}

// ClassifyConfig tunes the observation filter chain.
type ClassifyConfig struct {
	MinTinGrams    float64 `mapstructure:"min_tin_grams"`
	MaxPPG         float64 `mapstructure:"max_price_per_gram"`
	RequireSpecies bool    `mapstructure:"require_species"`
}

// DigestConfig tunes ranking and the movers section.
type DigestConfig struct {
	TopN         int            `mapstructure:"top_n"`
	MoversLimit  int            `mapstructure:"movers_limit"`
	HomeRegion   string         `mapstructure:"home_region"`
	RegionScores map[string]int `mapstructure:"region_scores"`
}

// StoreConfig controls access to the observation database. An empty DSN
// selects the in-memory store, which is dry-run only.
type StoreConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// ArchiveConfig sets where raw page snapshots land. Both fields empty
// disables archiving; GCSBucket wins when both are set.
type ArchiveConfig struct {
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// EmailConfig holds SMTP delivery settings. An empty host disables email.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CAVIARWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.user_agent", "caviarwatch-bot/0.1")
	v.SetDefault("crawler.sites_file", "sites.yaml")
	v.SetDefault("crawler.delay_seconds", 1)
	v.SetDefault("crawler.ignore_robots", false)
	v.SetDefault("crawler.max_pages_per_site", 40)
	v.SetDefault("crawler.max_links_per_site", 120)
	v.SetDefault("crawler.max_listing_pages_per_site", 5)
	v.SetDefault("crawler.site_deadline_seconds", 120)
	v.SetDefault("crawler.run_deadline_minutes", 20)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 2000)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.min_html_bytes", 2048)
	v.SetDefault("classify.min_tin_grams", 28.0)
	v.SetDefault("classify.max_price_per_gram", 100.0)
	v.SetDefault("classify.require_species", true)
	v.SetDefault("digest.top_n", 6)
	v.SetDefault("digest.movers_limit", 5)
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("email.port", 465)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Crawler.MaxPagesPerSite <= 0 {
		return fmt.Errorf("crawler.max_pages_per_site must be > 0")
	}
	if c.Crawler.MaxLinksPerSite <= 0 {
		return fmt.Errorf("crawler.max_links_per_site must be > 0")
	}
	if c.Crawler.MaxListingPages <= 0 {
		return fmt.Errorf("crawler.max_listing_pages_per_site must be > 0")
	}
	if c.Classify.MinTinGrams <= 0 {
		return fmt.Errorf("classify.min_tin_grams must be > 0")
	}
	if c.Classify.MaxPPG <= 0 {
		return fmt.Errorf("classify.max_price_per_gram must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Email.Host != "" {
		if c.Email.From == "" || c.Email.To == "" {
			return fmt.Errorf("email.from and email.to must be set when email.host is set")
		}
	}
	return nil
}

// RunDeadline is the global wall-clock budget for one crawl run.
func (c Config) RunDeadline() time.Duration {
	return time.Duration(c.Crawler.RunDeadlineMinutes) * time.Minute
}

// SiteDeadline bounds how long one site's crawl may take.
func (c Config) SiteDeadline() time.Duration {
	return time.Duration(c.Crawler.SiteDeadlineSec) * time.Second
}

// PageTimeout is the per-request HTTP timeout.
func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PolitenessDelay is the sleep between requests to one site.
func (c Config) PolitenessDelay() time.Duration {
	return time.Duration(c.Crawler.DelaySeconds) * time.Second
}

// BackoffInitial is the first retry delay, before jitter.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax caps the retry delay growth.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}

// HeadlessNavTimeout bounds a single headless page render.
func (c Config) HeadlessNavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// StoreConnLifetime is the max lifetime of a pooled database connection.
func (c Config) StoreConnLifetime() time.Duration {
	return time.Duration(c.Store.ConnLifetimeMin) * time.Minute
}
