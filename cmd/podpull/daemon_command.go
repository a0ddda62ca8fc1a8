package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"podpull/internal/api"
	"podpull/internal/config"
	"podpull/internal/logging"
	"podpull/internal/metrics"
	"podpull/internal/pipeline"
	"podpull/internal/registry"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the pipeline on the configured interval with the status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}

				promRegistry := prometheus.NewRegistry()
				collector := metrics.NewCollector(promRegistry)

				driver, err := pipeline.New(cfg, store, logger, collector)
				if err != nil {
					return err
				}

				server := api.NewServer(cfg, store, promRegistry, logger)
				serverErr := make(chan error, 1)
				go func() {
					serverErr <- server.Run(signalCtx)
				}()

				err = driver.Start(signalCtx)
				cancel()
				if serveErr := <-serverErr; serveErr != nil && !errors.Is(serveErr, context.Canceled) {
					logger.Warn("status server", logging.Error(serveErr))
				}
				if errors.Is(err, context.Canceled) {
					logger.Info("podpull daemon shut down")
					return nil
				}
				return err
			})
		},
	}
}
