package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"podpull/internal/config"
	"podpull/internal/download"
	"podpull/internal/feed"
	"podpull/internal/logging"
	"podpull/internal/metrics"
	"podpull/internal/registry"
)

// ErrAlreadyRunning reports that another daemon holds the pipeline lock.
var ErrAlreadyRunning = errors.New("another podpull instance is already running")

// RunSummary aggregates the outcome of one pipeline pass.
type RunSummary struct {
	RunID           string
	Reclaimed       int64
	Retried         int64
	PartialsRemoved int
	Feeds           []feed.Summary
	FeedErrors      int
	NewEpisodes     int
	Downloads       download.Result
	Elapsed         time.Duration
}

// StatusReport captures registry state for the CLI and API.
type StatusReport struct {
	Stats        map[registry.Status]int
	Health       registry.HealthSummary
	Podcasts     []*registry.Podcast
	RecentErrors []*registry.Episode
}

// Driver wires the fetcher and download worker into a repeatable cycle.
type Driver struct {
	cfg       *config.Config
	store     *registry.Store
	fetcher   *feed.Fetcher
	worker    *download.Worker
	collector *metrics.Collector
	logger    *slog.Logger

	lockPath string
	lock     *flock.Flock
}

// New constructs a Driver with initialized dependencies. The metrics
// collector may be nil.
func New(cfg *config.Config, store *registry.Store, logger *slog.Logger, collector *metrics.Collector) (*Driver, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("pipeline requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "podpull.lock")
	return &Driver{
		cfg:       cfg,
		store:     store,
		fetcher:   feed.NewFetcher(cfg, store, logger),
		worker:    download.NewWorker(cfg, store, logger),
		collector: collector,
		logger:    logging.WithComponent(logger, "pipeline"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// LockPath returns the file guarding single-instance execution.
func (d *Driver) LockPath() string {
	return d.lockPath
}

// RunOnce executes a single fetch and download pass.
func (d *Driver) RunOnce(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString()}
	start := time.Now()
	log := d.logger.With(logging.String(logging.FieldRunID, summary.RunID))

	if err := d.recoverState(ctx, summary, log); err != nil {
		return summary, err
	}

	podcasts, err := d.syncPodcasts(ctx)
	if err != nil {
		return summary, err
	}

	summary.Feeds = d.fetcher.FetchAll(ctx, podcasts)
	for _, feedSummary := range summary.Feeds {
		summary.NewEpisodes += feedSummary.NewEpisodes
		if feedSummary.Err != nil {
			summary.FeedErrors++
		}
		d.collector.RecordFetch(feedSummary.NotModified, feedSummary.Err != nil, feedSummary.Elapsed)
	}
	d.collector.RecordDiscovered(summary.NewEpisodes)

	downloads, err := d.worker.Run(ctx)
	if err != nil {
		return summary, err
	}
	summary.Downloads = downloads
	d.collector.RecordDownloads(downloads.Succeeded, downloads.Failed)

	summary.Elapsed = time.Since(start)
	log.Info("run complete",
		logging.Int("feeds", len(summary.Feeds)),
		logging.Int("feed_errors", summary.FeedErrors),
		logging.Int("new_episodes", summary.NewEpisodes),
		logging.Int("downloads_succeeded", downloads.Succeeded),
		logging.Int("downloads_failed", downloads.Failed),
		logging.Int("downloads_skipped", downloads.Skipped),
		logging.Int64("reclaimed", summary.Reclaimed),
		logging.Int64("retried", summary.Retried),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// recoverState sweeps state left by earlier runs: stale claims back to
// discovered, failed episodes back to the status they failed from, and
// orphaned temp files off the storage root.
func (d *Driver) recoverState(ctx context.Context, summary *RunSummary, log *slog.Logger) error {
	cutoff := time.Now().Add(-time.Duration(d.cfg.Download.StaleClaimTimeoutMinutes) * time.Minute)
	reclaimed, err := d.store.ReclaimStaleDownloads(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("reclaim stale downloads: %w", err)
	}
	summary.Reclaimed = reclaimed
	d.collector.RecordReclaimed(reclaimed)

	retried, err := d.store.ResetFailed(ctx)
	if err != nil {
		return fmt.Errorf("reset failed episodes: %w", err)
	}
	summary.Retried = retried

	removed, err := download.CleanupPartials(d.cfg.Paths.StorageRoot)
	if err != nil {
		log.Warn("partial cleanup failed", logging.Error(err))
	}
	summary.PartialsRemoved = removed

	if reclaimed > 0 || retried > 0 || removed > 0 {
		log.Info("recovery sweep",
			logging.Int64("reclaimed", reclaimed),
			logging.Int64("retried", retried),
			logging.Int("partials_removed", removed),
		)
	}
	return nil
}

// syncPodcasts reconciles the registry with the configured feeds and returns
// the active rows in config order. Disabled feeds keep their rows and history
// but are marked inactive so status output reflects the config.
func (d *Driver) syncPodcasts(ctx context.Context) ([]*registry.Podcast, error) {
	var podcasts []*registry.Podcast
	for _, subscription := range d.cfg.Feeds {
		if subscription.Disabled {
			if err := d.store.SetPodcastActive(ctx, subscription.URL, false); err != nil {
				return nil, fmt.Errorf("deactivate podcast %q: %w", subscription.URL, err)
			}
			continue
		}
		podcast, err := d.store.UpsertPodcast(ctx, subscription.URL, subscription.Name)
		if err != nil {
			return nil, fmt.Errorf("sync podcast %q: %w", subscription.URL, err)
		}
		podcasts = append(podcasts, podcast)
	}
	return podcasts, nil
}

// Start acquires the single-instance lock and repeats RunOnce on the
// configured interval until the context is canceled.
func (d *Driver) Start(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() { _ = d.lock.Unlock() }()

	interval := time.Duration(d.cfg.Fetch.IntervalMinutes) * time.Minute
	d.logger.Info("daemon started",
		logging.Int("feeds", len(d.cfg.ActiveFeeds())),
		logging.Duration("interval", interval),
	)

	if _, err := d.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Error("run failed", logging.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("run failed", logging.Error(err))
			}
		}
	}
}

// Status reports registry state for presentation.
func (d *Driver) Status(ctx context.Context) (*StatusReport, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	health, err := d.store.Health(ctx)
	if err != nil {
		return nil, err
	}
	podcasts, err := d.store.ListPodcasts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := d.store.RecentErrors(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &StatusReport{
		Stats:        stats,
		Health:       health,
		Podcasts:     podcasts,
		RecentErrors: recent,
	}, nil
}
