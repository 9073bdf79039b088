package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sturgeonlabs/caviarwatch/internal/sites"
)

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Inspect the configured site descriptors",
	}
	cmd.AddCommand(newSitesListCmd())
	cmd.AddCommand(newSitesValidateCmd())
	return cmd
}

func newSitesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the loaded site descriptors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if len(a.sites) == 0 {
				cmd.Println("no sites configured")
				return nil
			}
			for _, s := range a.sites {
				seeds := len(s.SeedProductURLs) + len(s.StartURLs)
				cmd.Printf("%-24s region=%-8s domains=%v seeds=%d\n",
					s.Name, s.Region, s.AllowDomains, seeds)
			}
			return nil
		},
	}
}

func newSitesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check site descriptors for missing required fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			errs := sites.Validate(a.sites)
			if len(errs) == 0 {
				cmd.Printf("%d site(s) ok\n", len(a.sites))
				return nil
			}
			for _, e := range errs {
				cmd.PrintErrln(e)
			}
			return fmt.Errorf("%d validation error(s)", len(errs))
		},
	}
}
