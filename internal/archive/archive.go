// Package archive persists raw page snapshots so a crawl can be replayed
// through the extractors without refetching. Objects are keyed by the
// fetch date and a hash of the URL.
package archive

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path"
	"time"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// Sink stores one page snapshot per call.
type Sink interface {
	SavePage(ctx context.Context, page model.Page, fetchedAt time.Time) error
}

// ObjectName derives the storage key for a page snapshot.
func ObjectName(prefix, rawURL string, fetchedAt time.Time) string {
	urlHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawURL)))
	if prefix == "" {
		prefix = "pages"
	}
	return path.Join(
		prefix,
		fetchedAt.UTC().Format("2006-01-02"),
		fmt.Sprintf("%s.html", urlHash),
	)
}

// NoOp discards snapshots. Used when archiving is not configured.
type NoOp struct{}

// SavePage implements Sink.
func (NoOp) SavePage(context.Context, model.Page, time.Time) error { return nil }
