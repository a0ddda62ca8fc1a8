package registry

import (
	"database/sql"
	"errors"
	"time"
)

const podcastColumns = "id, feed_url, title, slug, etag, last_modified, last_fetched_at, active, created_at, updated_at"

const episodeColumns = "id, podcast_id, guid, fingerprint, title, description, audio_url, published_at, duration_seconds, status, resume_status, error_message, retry_count, audio_path, created_at, updated_at"

func scanPodcast(scanner interface{ Scan(dest ...any) error }) (*Podcast, error) {
	var (
		id             int64
		feedURL        string
		title          sql.NullString
		slug           sql.NullString
		etag           sql.NullString
		lastModified   sql.NullString
		lastFetchedRaw sql.NullString
		active         bool
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&feedURL,
		&title,
		&slug,
		&etag,
		&lastModified,
		&lastFetchedRaw,
		&active,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	podcast := &Podcast{
		ID:           id,
		FeedURL:      feedURL,
		Title:        title.String,
		Slug:         slug.String,
		ETag:         etag.String,
		LastModified: lastModified.String,
		Active:       active,
	}
	if lastFetchedRaw.Valid {
		if fetched, err := parseTimeString(lastFetchedRaw.String); err == nil {
			podcast.LastFetchedAt = &fetched
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		podcast.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		podcast.UpdatedAt = updated
	}
	return podcast, nil
}

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		id           int64
		podcastID    int64
		guid         sql.NullString
		fingerprint  string
		title        sql.NullString
		description  sql.NullString
		audioURL     string
		publishedRaw sql.NullString
		duration     sql.NullInt64
		statusStr    string
		resumeStr    sql.NullString
		errorMessage sql.NullString
		retryCount   sql.NullInt64
		audioPath    sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&podcastID,
		&guid,
		&fingerprint,
		&title,
		&description,
		&audioURL,
		&publishedRaw,
		&duration,
		&statusStr,
		&resumeStr,
		&errorMessage,
		&retryCount,
		&audioPath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	episode := &Episode{
		ID:              id,
		PodcastID:       podcastID,
		GUID:            guid.String,
		Fingerprint:     fingerprint,
		Title:           title.String,
		Description:     description.String,
		AudioURL:        audioURL,
		DurationSeconds: duration.Int64,
		Status:          Status(statusStr),
		ResumeStatus:    Status(resumeStr.String),
		ErrorMessage:    errorMessage.String,
		RetryCount:      int(retryCount.Int64),
		AudioPath:       audioPath.String,
	}
	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			episode.PublishedAt = published
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		episode.UpdatedAt = updated
	}
	return episode, nil
}

// timeFormat pads fractional seconds to nine digits so stored timestamps
// compare correctly as TEXT. RFC3339Nano trims trailing zeros, which breaks
// lexicographic ordering between fractions of different widths.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
