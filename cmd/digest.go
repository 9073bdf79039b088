package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newDigestCmd rebuilds the digest from already stored observations
// without crawling. By default the ranked rows print to stdout as CSV;
// flags export them to disk or resend the email.
func newDigestCmd() *cobra.Command {
	var (
		outDir string
		send   bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Rebuild the digest from stored observations without crawling",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.pipeline.BuildDigest(cmd.Context())
			if err != nil {
				return fmt.Errorf("build digest: %w", err)
			}
			if d.Empty() {
				a.logger.Warn("digest is empty; no stored observations matched")
			}
			if outDir != "" {
				if err := d.Export(outDir); err != nil {
					return fmt.Errorf("export digest: %w", err)
				}
				a.logger.Info("digest exported", zap.String("dir", outDir))
			} else {
				if err := d.WriteCSV(cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("print digest: %w", err)
				}
			}
			if send {
				a.pipeline.Deliver(cmd.Context(), d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "directory to write caviar_prices.csv and caviar_prices.json into")
	cmd.Flags().BoolVar(&send, "send", false, "email the rebuilt digest")

	return cmd
}
