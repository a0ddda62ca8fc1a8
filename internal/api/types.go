package api

import (
	"time"

	"podpull/internal/registry"
)

type podcastJSON struct {
	ID            int64      `json:"id"`
	FeedURL       string     `json:"feed_url"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Active        bool       `json:"active"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type episodeJSON struct {
	ID              int64     `json:"id"`
	PodcastID       int64     `json:"podcast_id"`
	GUID            string    `json:"guid"`
	Title           string    `json:"title"`
	AudioURL        string    `json:"audio_url"`
	PublishedAt     time.Time `json:"published_at"`
	DurationSeconds int64     `json:"duration_seconds"`
	Status          string    `json:"status"`
	RetryCount      int       `json:"retry_count"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	AudioPath       string    `json:"audio_path,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type healthJSON struct {
	Total      int `json:"total"`
	Discovered int `json:"discovered"`
	InFlight   int `json:"in_flight"`
	Downloaded int `json:"downloaded"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Abandoned  int `json:"abandoned"`
}

type statusJSON struct {
	Health       healthJSON     `json:"health"`
	Stats        map[string]int `json:"stats"`
	Podcasts     []podcastJSON  `json:"podcasts"`
	RecentErrors []episodeJSON  `json:"recent_errors"`
}

type episodeListJSON struct {
	Episodes []episodeJSON `json:"episodes"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func toPodcastJSON(podcast *registry.Podcast) podcastJSON {
	return podcastJSON{
		ID:            podcast.ID,
		FeedURL:       podcast.FeedURL,
		Title:         podcast.Title,
		Slug:          podcast.Slug,
		Active:        podcast.Active,
		LastFetchedAt: podcast.LastFetchedAt,
		CreatedAt:     podcast.CreatedAt,
	}
}

func toEpisodeJSON(episode *registry.Episode) episodeJSON {
	return episodeJSON{
		ID:              episode.ID,
		PodcastID:       episode.PodcastID,
		GUID:            episode.GUID,
		Title:           episode.Title,
		AudioURL:        episode.AudioURL,
		PublishedAt:     episode.PublishedAt,
		DurationSeconds: episode.DurationSeconds,
		Status:          string(episode.Status),
		RetryCount:      episode.RetryCount,
		ErrorMessage:    episode.ErrorMessage,
		AudioPath:       episode.AudioPath,
		UpdatedAt:       episode.UpdatedAt,
	}
}

func toEpisodeListJSON(episodes []*registry.Episode) episodeListJSON {
	out := episodeListJSON{Episodes: make([]episodeJSON, 0, len(episodes))}
	for _, episode := range episodes {
		out.Episodes = append(out.Episodes, toEpisodeJSON(episode))
	}
	return out
}

func toHealthJSON(health registry.HealthSummary) healthJSON {
	return healthJSON{
		Total:      health.Total,
		Discovered: health.Discovered,
		InFlight:   health.InFlight,
		Downloaded: health.Downloaded,
		Completed:  health.Completed,
		Failed:     health.Failed,
		Abandoned:  health.Abandoned,
	}
}
