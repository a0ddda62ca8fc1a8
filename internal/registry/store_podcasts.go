package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"podpull/internal/textutil"
)

// UpsertPodcast inserts or refreshes a podcast keyed by feed URL. The row id
// is stable across runs; the display title and slug are refreshed and the
// podcast is marked active, reactivating feeds that were previously disabled.
func (s *Store) UpsertPodcast(ctx context.Context, feedURL, title string) (*Podcast, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, errors.New("feed url is empty")
	}
	title = strings.TrimSpace(title)
	slugSource := title
	if slugSource == "" {
		slugSource = feedURL
	}
	slug := textutil.Slug(slugSource)
	timestamp := formatTime(time.Now())

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO podcasts (feed_url, title, slug, active, created_at, updated_at)
         VALUES (?, ?, ?, 1, ?, ?)
         ON CONFLICT(feed_url) DO UPDATE SET
             title = excluded.title,
             slug = excluded.slug,
             active = 1,
             updated_at = excluded.updated_at`,
		feedURL,
		nullableString(title),
		slug,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert podcast: %w", err)
	}

	return s.GetPodcastByFeedURL(ctx, feedURL)
}

// GetPodcastByID fetches a podcast by identifier.
func (s *Store) GetPodcastByID(ctx context.Context, id int64) (*Podcast, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+podcastColumns+` FROM podcasts WHERE id = ?`, id)
	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get podcast: %w", err)
	}
	return podcast, nil
}

// GetPodcastByFeedURL fetches a podcast by its feed URL.
func (s *Store) GetPodcastByFeedURL(ctx context.Context, feedURL string) (*Podcast, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+podcastColumns+` FROM podcasts WHERE feed_url = ?`, feedURL)
	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get podcast by feed url: %w", err)
	}
	return podcast, nil
}

// ListPodcasts returns all podcasts ordered by title.
func (s *Store) ListPodcasts(ctx context.Context) ([]*Podcast, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+podcastColumns+` FROM podcasts ORDER BY title, feed_url`)
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	defer rows.Close()

	var podcasts []*Podcast
	for rows.Next() {
		podcast, err := scanPodcast(rows)
		if err != nil {
			return nil, err
		}
		podcasts = append(podcasts, podcast)
	}
	return podcasts, rows.Err()
}

// SetPodcastActive flips the active flag for the podcast with the given feed
// URL. Unknown feed URLs are a no-op so removed config entries never fail a
// run.
func (s *Store) SetPodcastActive(ctx context.Context, feedURL string, active bool) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE podcasts SET active = ?, updated_at = ? WHERE feed_url = ?`,
		active,
		formatTime(time.Now()),
		strings.TrimSpace(feedURL),
	); err != nil {
		return fmt.Errorf("set podcast active: %w", err)
	}
	return nil
}

// SetFeedCache records the conditional-request state returned by the last
// successful fetch of a feed.
func (s *Store) SetFeedCache(ctx context.Context, podcastID int64, etag, lastModified string) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE podcasts SET etag = ?, last_modified = ?, last_fetched_at = ?, updated_at = ? WHERE id = ?`,
		nullableString(strings.TrimSpace(etag)),
		nullableString(strings.TrimSpace(lastModified)),
		formatTime(now),
		formatTime(now),
		podcastID,
	); err != nil {
		return fmt.Errorf("set feed cache: %w", err)
	}
	return nil
}
