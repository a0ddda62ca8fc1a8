package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podpull/internal/config"
	"podpull/internal/registry"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <episode-id> [episode-id...]",
		Short: "Requeue failed or abandoned episodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid episode id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				cmdCtx := cmd.Context()
				out := cmd.OutOrStdout()

				for _, id := range ids {
					episode, err := store.GetByID(cmdCtx, id)
					if err != nil {
						return fmt.Errorf("episode %d: %w", id, err)
					}

					switch episode.Status {
					case registry.StatusFailed:
						if _, err := store.ResetFailed(cmdCtx, id); err != nil {
							return fmt.Errorf("retry episode %d: %w", id, err)
						}
					case registry.StatusAbandoned:
						if _, err := store.ResetAbandoned(cmdCtx, id); err != nil {
							return fmt.Errorf("retry episode %d: %w", id, err)
						}
					default:
						return fmt.Errorf("episode %d is %s, only failed or abandoned episodes can be retried", id, episode.Status)
					}

					requeued, err := store.GetByID(cmdCtx, id)
					if err != nil {
						return fmt.Errorf("episode %d: %w", id, err)
					}
					fmt.Fprintf(out, "Episode %d (%s) requeued as %s\n", id, truncate(episode.Title, 50), requeued.Status)
				}
				return nil
			})
		},
	}
}
