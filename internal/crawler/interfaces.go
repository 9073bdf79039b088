package crawler

import (
	"context"
	"time"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// Fetcher retrieves a URL and returns the body plus response metadata.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (model.Page, error)
}

// Renderer executes a page with JavaScript enabled and returns the DOM.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (model.Page, error)
	Close(ctx context.Context) error
}

// Detector decides whether a fetched page needs the headless path.
type Detector interface {
	NeedsJS(ctx context.Context, page model.Page) bool
}

// RobotsPolicy answers whether a URL may be fetched at all.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// RetryPolicy governs transient-failure retries around a fetch.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}
