package crawler

import "time"

// Config carries the crawl tunables one run needs.
type Config struct {
	UserAgent       string
	RequestTimeout  time.Duration
	PolitenessDelay time.Duration
	MaxPagesPerSite int
	MaxLinksPerSite int
	MaxListingPages int
	SiteDeadline    time.Duration
	RespectRobots   bool

	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	HeadlessEnabled     bool
	HeadlessMaxParallel int
	HeadlessNavTimeout  time.Duration
	HeadlessMinBytes    int
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "caviarwatch-bot/0.1"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.MaxPagesPerSite <= 0 {
		c.MaxPagesPerSite = 40
	}
	if c.MaxLinksPerSite <= 0 {
		c.MaxLinksPerSite = 120
	}
	if c.MaxListingPages <= 0 {
		c.MaxListingPages = 5
	}
	if c.SiteDeadline <= 0 {
		c.SiteDeadline = 2 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = 250 * time.Millisecond
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 2 * time.Second
	}
	if c.HeadlessNavTimeout <= 0 {
		c.HeadlessNavTimeout = 25 * time.Second
	}
	if c.HeadlessMinBytes <= 0 {
		c.HeadlessMinBytes = 2048
	}
	return c
}
