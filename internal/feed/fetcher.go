package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"podpull/internal/config"
	"podpull/internal/logging"
	"podpull/internal/registry"
	"podpull/internal/services"
)

// maxFeedBodyBytes bounds how much of a feed response is read. Podcast feeds
// routinely reach a few MiB; anything past this is hostile or broken.
const maxFeedBodyBytes = 16 << 20

// Summary reports the outcome of fetching one feed.
type Summary struct {
	Podcast     *registry.Podcast
	NewEpisodes int
	SeenEntries int
	NotModified bool
	Elapsed     time.Duration
	Err         error
}

// Fetcher polls feeds and registers their episodes.
type Fetcher struct {
	store          *registry.Store
	client         *http.Client
	limiter        *rate.Limiter
	logger         *slog.Logger
	userAgent      string
	maxEntries     int
	maxConcurrency int
}

// NewFetcher builds a Fetcher from configuration.
func NewFetcher(cfg *config.Config, store *registry.Store, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		store: store,
		client: &http.Client{
			Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		},
		limiter:        rate.NewLimiter(rate.Limit(cfg.Fetch.RequestsPerSecond), 1),
		logger:         logging.WithComponent(logger, "fetch"),
		userAgent:      cfg.Fetch.UserAgent,
		maxEntries:     cfg.Fetch.MaxEntriesPerFeed,
		maxConcurrency: cfg.Fetch.MaxConcurrency,
	}
}

// FetchAll polls every podcast under the configured concurrency limit and
// returns one summary per podcast in input order.
func (f *Fetcher) FetchAll(ctx context.Context, podcasts []*registry.Podcast) []Summary {
	summaries := make([]Summary, len(podcasts))
	sem := make(chan struct{}, f.maxConcurrency)
	var wg sync.WaitGroup

	for i, podcast := range podcasts {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			summaries[i] = Summary{Podcast: podcast, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func(i int, podcast *registry.Podcast) {
			defer wg.Done()
			defer func() { <-sem }()
			summaries[i] = f.fetchOne(ctx, podcast)
		}(i, podcast)
	}
	wg.Wait()
	return summaries
}

func (f *Fetcher) fetchOne(ctx context.Context, podcast *registry.Podcast) (summary Summary) {
	summary = Summary{Podcast: podcast}
	start := time.Now()
	defer func() { summary.Elapsed = time.Since(start) }()

	if err := f.limiter.Wait(ctx); err != nil {
		summary.Err = err
		return summary
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, podcast.FeedURL, nil)
	if err != nil {
		summary.Err = services.Wrap(services.ErrConfiguration, "fetch", "request", podcast.FeedURL, err)
		return summary
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")
	if podcast.ETag != "" {
		req.Header.Set("If-None-Match", podcast.ETag)
	}
	if podcast.LastModified != "" {
		req.Header.Set("If-Modified-Since", podcast.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		summary.Err = services.Wrap(services.ErrTransient, "fetch", "request", podcast.FeedURL, err)
		f.logFailure(podcast, summary.Err)
		return summary
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		summary.NotModified = true
		if err := f.store.SetFeedCache(ctx, podcast.ID, podcast.ETag, podcast.LastModified); err != nil {
			summary.Err = err
			return summary
		}
		f.logger.Debug("feed not modified",
			logging.String(logging.FieldPodcast, podcast.Slug),
			logging.String(logging.FieldFeedURL, podcast.FeedURL),
		)
		return summary
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		summary.Err = services.Wrap(services.ErrTransient, "fetch", "request",
			fmt.Sprintf("%s returned status %d", podcast.FeedURL, resp.StatusCode), nil)
		f.logFailure(podcast, summary.Err)
		return summary
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		summary.Err = services.Wrap(services.ErrTransient, "fetch", "read body", podcast.FeedURL, err)
		f.logFailure(podcast, summary.Err)
		return summary
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		summary.Err = services.Wrap(services.ErrParse, "fetch", "parse", podcast.FeedURL, err)
		f.logFailure(podcast, summary.Err)
		return summary
	}

	if podcast.Title == "" && parsed.Title != "" {
		if refreshed, err := f.store.UpsertPodcast(ctx, podcast.FeedURL, parsed.Title); err == nil {
			podcast = refreshed
			summary.Podcast = refreshed
		}
	}

	items := parsed.Items
	if f.maxEntries > 0 && len(items) > f.maxEntries {
		items = items[:f.maxEntries]
	}
	for _, item := range items {
		entry, ok := convertItem(item)
		if !ok {
			continue
		}
		summary.SeenEntries++
		entry.PodcastID = podcast.ID
		_, created, err := f.store.UpsertEpisode(ctx, entry)
		if err != nil {
			summary.Err = err
			f.logFailure(podcast, err)
			return summary
		}
		if created {
			summary.NewEpisodes++
		}
	}

	if err := f.store.SetFeedCache(ctx, podcast.ID, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")); err != nil {
		summary.Err = err
		return summary
	}

	f.logger.Info("feed fetched",
		logging.String(logging.FieldPodcast, podcast.Slug),
		logging.String(logging.FieldFeedURL, podcast.FeedURL),
		logging.Int("entries", summary.SeenEntries),
		logging.Int("new_episodes", summary.NewEpisodes),
		logging.Duration("elapsed", time.Since(start)),
	)
	return summary
}

func (f *Fetcher) logFailure(podcast *registry.Podcast, err error) {
	f.logger.Warn("feed fetch failed",
		logging.String(logging.FieldPodcast, podcast.Slug),
		logging.String(logging.FieldFeedURL, podcast.FeedURL),
		logging.Error(err),
	)
}
