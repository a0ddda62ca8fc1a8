package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podpull/internal/config"
	"podpull/internal/registry"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List episodes by lifecycle status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := registry.ParseStatus(statusFlag)
			if !ok {
				return fmt.Errorf("unknown status %q (known: %s)", statusFlag, statusList())
			}

			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				episodes, err := store.ListByStatus(cmd.Context(), status, limitFlag)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(episodes) == 0 {
					fmt.Fprintf(out, "No episodes with status %s\n", status)
					return nil
				}

				rows := make([][]string, 0, len(episodes))
				for _, episode := range episodes {
					rows = append(rows, []string{
						strconv.FormatInt(episode.ID, 10),
						strconv.FormatInt(episode.PodcastID, 10),
						truncate(episode.Title, 50),
						episode.PublishedAt.Format("2006-01-02"),
						formatDuration(episode.DurationSeconds),
						strconv.Itoa(episode.RetryCount),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Podcast", "Title", "Published", "Duration", "Retries"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", string(registry.StatusDiscovered), "Lifecycle status to list")
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 50, "Maximum episodes to list (0 for all)")
	return cmd
}
