package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

// GCS uploads page snapshots to a Google Cloud Storage bucket.
// Authentication comes from Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewGCS builds the client and verifies bucket access so a misconfigured
// deployment fails at startup rather than mid-crawl.
func NewGCS(ctx context.Context, bucket, prefix string, logger *zap.Logger) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	bkt := client.Bucket(bucket)
	if _, err := bkt.Attrs(ctx); err != nil {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("failed to close gcs client after attrs failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucket, err)
	}

	return &GCS{client: client, bucket: bucket, prefix: prefix, logger: logger}, nil
}

// SavePage implements Sink.
func (g *GCS) SavePage(ctx context.Context, page model.Page, fetchedAt time.Time) error {
	objectName := ObjectName(g.prefix, page.URL, fetchedAt)
	wc := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "text/html; charset=utf-8"

	if _, err := wc.Write(page.Body); err != nil {
		if cerr := wc.Close(); cerr != nil {
			g.logger.Warn("failed to close gcs writer after write failure", zap.Error(cerr))
		}
		return fmt.Errorf("write gcs object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gcs writer for %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
