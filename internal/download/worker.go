package download

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"podpull/internal/config"
	"podpull/internal/logging"
	"podpull/internal/registry"
	"podpull/internal/services"
)

// Result aggregates the outcome of one download run.
type Result struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
}

// Worker downloads discovered episodes under a bounded concurrency limit.
type Worker struct {
	store  *registry.Store
	client *http.Client
	logger *slog.Logger

	storageRoot    string
	userAgent      string
	timeout        time.Duration
	maxConcurrency int
	minFreeMiB     int
}

// NewWorker builds a Worker from configuration.
func NewWorker(cfg *config.Config, store *registry.Store, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		store:          store,
		client:         &http.Client{},
		logger:         logging.WithComponent(logger, "download"),
		storageRoot:    cfg.Paths.StorageRoot,
		userAgent:      cfg.Fetch.UserAgent,
		timeout:        time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
		maxConcurrency: cfg.Download.MaxConcurrency,
		minFreeMiB:     cfg.Download.MinFreeSpaceMiB,
	}
}

// Run drains every discovered episode, oldest published first. Episodes whose
// claim was lost to another worker are counted as skipped; download failures
// are recorded against the episode and counted, never returned. The only
// error Run itself reports is an unusable storage root or a registry fault.
func (w *Worker) Run(ctx context.Context) (Result, error) {
	var result Result

	if err := os.MkdirAll(w.storageRoot, 0o755); err != nil {
		return result, fmt.Errorf("create storage root: %w", err)
	}
	if err := CheckStorage(w.storageRoot, w.minFreeMiB); err != nil {
		return result, err
	}

	episodes, err := w.store.ListByStatus(ctx, registry.StatusDiscovered, 0)
	if err != nil {
		return result, err
	}
	if len(episodes) == 0 {
		return result, nil
	}

	podcasts, err := w.podcastSlugs(ctx, episodes)
	if err != nil {
		return result, err
	}

	sem := make(chan struct{}, w.maxConcurrency)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, episode := range episodes {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Stop dispatching and let in-flight transfers finish before
			// reading the shared counters.
			wg.Wait()
			return result, ctx.Err()
		}
		wg.Add(1)
		go func(episode *registry.Episode) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := w.process(ctx, episode, podcasts[episode.PodcastID])

			mu.Lock()
			defer mu.Unlock()
			result.Attempted++
			switch outcome {
			case outcomeSucceeded:
				result.Succeeded++
			case outcomeFailed:
				result.Failed++
			case outcomeSkipped:
				result.Skipped++
			}
		}(episode)
	}
	wg.Wait()
	return result, nil
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeFailed
	outcomeSkipped
)

func (w *Worker) process(ctx context.Context, episode *registry.Episode, podcastSlug string) outcome {
	claimed, err := w.store.Claim(ctx, episode.ID)
	if err != nil {
		w.logger.Error("claim failed",
			logging.Int64(logging.FieldEpisodeID, episode.ID),
			logging.Error(err),
		)
		return outcomeFailed
	}
	if !claimed {
		return outcomeSkipped
	}

	audioPath, err := w.download(ctx, episode, podcastSlug)
	if err != nil {
		w.logger.Warn("download failed",
			logging.Int64(logging.FieldEpisodeID, episode.ID),
			logging.String("audio_url", episode.AudioURL),
			logging.Error(err),
		)
		if markErr := w.store.MarkFailed(ctx, episode.ID, err.Error()); markErr != nil {
			w.logger.Error("mark failed errored",
				logging.Int64(logging.FieldEpisodeID, episode.ID),
				logging.Error(markErr),
			)
		}
		return outcomeFailed
	}

	if err := w.store.MarkDownloaded(ctx, episode.ID, audioPath); err != nil {
		w.logger.Error("mark downloaded errored",
			logging.Int64(logging.FieldEpisodeID, episode.ID),
			logging.Error(err),
		)
		return outcomeFailed
	}
	w.logger.Info("episode downloaded",
		logging.Int64(logging.FieldEpisodeID, episode.ID),
		logging.String("path", audioPath),
	)
	return outcomeSucceeded
}

// download streams the enclosure to a temp file next to the target and
// renames it into place. The final path only ever holds complete audio.
func (w *Worker) download(ctx context.Context, episode *registry.Episode, podcastSlug string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, episode.AudioURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "download", "request", episode.AudioURL, err)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "download", "request", episode.AudioURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrTransient, "download", "request",
			fmt.Sprintf("%s returned status %d", episode.AudioURL, resp.StatusCode), nil)
	}

	target := TargetPath(w.storageRoot, podcastSlug, episode, resp.Header.Get("Content-Type"))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create podcast directory: %w", err)
	}

	tmp := target + partialSuffix
	file, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrTransient, "download", "stream", episode.AudioURL, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize download: %w", err)
	}
	return target, nil
}

func (w *Worker) podcastSlugs(ctx context.Context, episodes []*registry.Episode) (map[int64]string, error) {
	slugs := make(map[int64]string)
	for _, episode := range episodes {
		if _, ok := slugs[episode.PodcastID]; ok {
			continue
		}
		podcast, err := w.store.GetPodcastByID(ctx, episode.PodcastID)
		if err != nil {
			return nil, fmt.Errorf("resolve podcast %d: %w", episode.PodcastID, err)
		}
		slugs[episode.PodcastID] = podcast.Slug
	}
	return slugs, nil
}

// CleanupPartials removes leftover temp files from interrupted transfers.
func CleanupPartials(root string) (int, error) {
	removed := 0
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if entry.IsDir() || filepath.Ext(path) != partialSuffix {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if os.IsNotExist(err) {
		return removed, nil
	}
	return removed, err
}
