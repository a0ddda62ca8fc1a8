package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podpull/internal/config"
	"podpull/internal/logging"
	"podpull/internal/pipeline"
	"podpull/internal/registry"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch all feeds and download new episodes once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				driver, err := pipeline.New(cfg, store, logger, nil)
				if err != nil {
					return err
				}

				summary, err := driver.RunOnce(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Fetched %d feeds (%d failed, %d unchanged)\n",
					len(summary.Feeds), summary.FeedErrors, countNotModified(summary.Feeds))
				fmt.Fprintf(out, "Discovered %d new episodes\n", summary.NewEpisodes)
				fmt.Fprintf(out, "Downloads: %d succeeded, %d failed, %d skipped\n",
					summary.Downloads.Succeeded, summary.Downloads.Failed, summary.Downloads.Skipped)
				if summary.Reclaimed > 0 || summary.Retried > 0 {
					fmt.Fprintf(out, "Recovered %d stale claims, requeued %d failed episodes\n",
						summary.Reclaimed, summary.Retried)
				}
				return nil
			})
		},
	}
}
