package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podpull/internal/config"
	"podpull/internal/registry"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show registry health and recent failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				cmdCtx := cmd.Context()
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				podcasts, err := store.ListPodcasts(cmdCtx)
				if err != nil {
					return err
				}
				health, err := store.Health(cmdCtx)
				if err != nil {
					return err
				}
				recent, err := store.RecentErrors(cmdCtx, 10)
				if err != nil {
					return err
				}

				fmt.Fprintln(out, renderSectionHeader("Podcasts", colorize))
				if len(podcasts) == 0 {
					fmt.Fprintln(out, countIndent+"No podcasts configured")
				} else {
					rows := make([][]string, 0, len(podcasts))
					for _, podcast := range podcasts {
						rows = append(rows, []string{
							strconv.FormatInt(podcast.ID, 10),
							podcast.Title,
							podcast.FeedURL,
							yesNo(podcast.Active),
							formatFetchedAt(podcast.LastFetchedAt),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Title", "Feed", "Active", "Last Fetched"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
					))
				}

				fmt.Fprintln(out, renderSectionHeader("Episodes", colorize))
				fmt.Fprintln(out, renderCountLine("Total", health.Total, statusInfo, false))
				fmt.Fprintln(out, renderCountLine("Discovered", health.Discovered, statusInfo, colorize))
				fmt.Fprintln(out, renderCountLine("In flight", health.InFlight, statusInfo, colorize))
				fmt.Fprintln(out, renderCountLine("Downloaded", health.Downloaded, statusOK, colorize))
				fmt.Fprintln(out, renderCountLine("Completed", health.Completed, statusOK, colorize))
				fmt.Fprintln(out, renderCountLine("Failed", health.Failed, statusWarn, colorize))
				fmt.Fprintln(out, renderCountLine("Abandoned", health.Abandoned, statusError, colorize))

				if len(recent) > 0 {
					fmt.Fprintln(out, renderSectionHeader("Recent Errors", colorize))
					rows := make([][]string, 0, len(recent))
					for _, episode := range recent {
						rows = append(rows, []string{
							strconv.FormatInt(episode.ID, 10),
							truncate(episode.Title, 40),
							string(episode.Status),
							strconv.Itoa(episode.RetryCount),
							truncate(episode.ErrorMessage, 60),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Title", "Status", "Retries", "Error"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
					))
				}
				return nil
			})
		},
	}
}
