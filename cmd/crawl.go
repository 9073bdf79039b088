package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd runs one full crawl: fetch, classify, store, rebuild the
// digest, and deliver it if email is configured.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl all configured sites and build a fresh digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.pipeline.RunCrawl(cmd.Context())
			if err != nil {
				return fmt.Errorf("crawl run: %w", err)
			}
			entries := 0
			for _, bucket := range d.Buckets {
				entries += len(bucket)
			}
			a.logger.Info("crawl run finished",
				zap.Int("digest_entries", entries),
				zap.Int("movers", len(d.Movers)),
			)
			return nil
		},
	}
}
