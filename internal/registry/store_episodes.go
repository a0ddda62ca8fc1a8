package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertEpisode inserts a newly discovered episode or refreshes the display
// metadata of one already on record. The fingerprint decides identity; an
// existing row keeps its status, retry accounting, and audio path untouched.
// The returned flag reports whether the episode was newly created.
func (s *Store) UpsertEpisode(ctx context.Context, episode *Episode) (*Episode, bool, error) {
	if episode == nil {
		return nil, false, errors.New("episode is nil")
	}
	if episode.PodcastID == 0 {
		return nil, false, errors.New("episode has no podcast id")
	}
	if episode.AudioURL == "" {
		return nil, false, errors.New("episode has no audio url")
	}

	fingerprint := Fingerprint(episode.PodcastID, episode.GUID, episode.AudioURL)
	now := time.Now().UTC()
	timestamp := formatTime(now)
	published := episode.PublishedAt
	if published.IsZero() {
		published = now
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO episodes (
            podcast_id, guid, fingerprint, title, description, audio_url,
            published_at, duration_seconds, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.PodcastID,
		nullableString(episode.GUID),
		fingerprint,
		nullableString(episode.Title),
		nullableString(episode.Description),
		episode.AudioURL,
		formatTime(published),
		episode.DurationSeconds,
		StatusDiscovered,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}
	created := affected > 0

	if !created {
		if err := s.execWithoutResultRetry(
			ctx,
			`UPDATE episodes
             SET title = ?, description = ?, duration_seconds = ?, updated_at = ?
             WHERE fingerprint = ?`,
			nullableString(episode.Title),
			nullableString(episode.Description),
			episode.DurationSeconds,
			timestamp,
			fingerprint,
		); err != nil {
			return nil, false, fmt.Errorf("refresh episode metadata: %w", err)
		}
	}

	stored, err := s.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// GetByID fetches an episode by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// FindByFingerprint returns the episode matching a fingerprint.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*Episode, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE fingerprint = ?`,
		fingerprint,
	)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	return episode, nil
}

// ListByStatus returns episodes in a status ordered oldest published first.
// A limit of 0 returns every match.
func (s *Store) ListByStatus(ctx context.Context, status Status, limit int) ([]*Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE status = ? ORDER BY published_at, id`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by status: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// ListByPodcast returns a podcast's episodes ordered newest published first.
func (s *Store) ListByPodcast(ctx context.Context, podcastID int64, limit int) ([]*Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE podcast_id = ? ORDER BY published_at DESC, id DESC`
	args := []any{podcastID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by podcast: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}
