package testsupport

import (
	"context"
	"testing"

	"podpull/internal/config"
	"podpull/internal/registry"
)

// MustOpenStore opens a registry.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPodcast creates a podcast row for tests using the provided store.
func NewPodcast(t testing.TB, store *registry.Store, feedURL, title string) *registry.Podcast {
	t.Helper()

	podcast, err := store.UpsertPodcast(context.Background(), feedURL, title)
	if err != nil {
		t.Fatalf("store.UpsertPodcast: %v", err)
	}
	return podcast
}

// DiscoverEpisode inserts a freshly discovered episode for tests.
func DiscoverEpisode(t testing.TB, store *registry.Store, podcastID int64, guid, title, audioURL string) *registry.Episode {
	t.Helper()

	episode, created, err := store.UpsertEpisode(context.Background(), &registry.Episode{
		PodcastID: podcastID,
		GUID:      guid,
		Title:     title,
		AudioURL:  audioURL,
	})
	if err != nil {
		t.Fatalf("store.UpsertEpisode: %v", err)
	}
	if !created {
		t.Fatalf("expected episode %q to be newly created", guid)
	}
	return episode
}
