package feed_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"podpull/internal/feed"
	"podpull/internal/registry"
	"podpull/internal/services"
	"podpull/internal/testsupport"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Example Show</title>
    <item>
      <title>Episode One</title>
      <guid>guid-ep1</guid>
      <pubDate>Mon, 03 Aug 2026 10:00:00 GMT</pubDate>
      <itunes:duration>1:02:03</itunes:duration>
      <enclosure url="%s/ep1.mp3" type="audio/mpeg" length="1024"/>
    </item>
    <item>
      <title>Show Notes Only</title>
      <guid>guid-notes</guid>
    </item>
    <item>
      <title>Episode Two</title>
      <guid>guid-ep2</guid>
      <pubDate>Tue, 04 Aug 2026 10:00:00 GMT</pubDate>
      <enclosure url="%s/ep2.mp3" type="audio/mpeg" length="2048"/>
    </item>
  </channel>
</rss>`

func TestFetchAllDiscoversEpisodesOnce(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, sampleFeed, feedBaseURL(r), feedBaseURL(r))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fetcher := feed.NewFetcher(cfg, store, nil)

	ctx := context.Background()
	podcast := testsupport.NewPodcast(t, store, server.URL+"/feed.xml", "Example Show")

	summaries := fetcher.FetchAll(ctx, []*registry.Podcast{podcast})
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	summary := summaries[0]
	if summary.Err != nil {
		t.Fatalf("unexpected fetch error: %v", summary.Err)
	}
	if summary.SeenEntries != 2 {
		t.Fatalf("expected 2 playable entries, got %d", summary.SeenEntries)
	}
	if summary.NewEpisodes != 2 {
		t.Fatalf("expected 2 new episodes, got %d", summary.NewEpisodes)
	}

	episodes, err := store.ListByStatus(ctx, registry.StatusDiscovered, 0)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("expected 2 discovered episodes, got %d", len(episodes))
	}
	if episodes[0].Title != "Episode One" {
		t.Fatalf("expected oldest first, got %q", episodes[0].Title)
	}
	if episodes[0].DurationSeconds != 3723 {
		t.Fatalf("expected parsed duration, got %d", episodes[0].DurationSeconds)
	}

	// Second pass: server honours the stored ETag with a 304 and nothing new
	// is registered.
	updated, err := store.GetPodcastByID(ctx, podcast.ID)
	if err != nil {
		t.Fatalf("GetPodcastByID failed: %v", err)
	}
	if updated.ETag != `"v1"` {
		t.Fatalf("expected stored etag, got %q", updated.ETag)
	}

	summaries = fetcher.FetchAll(ctx, []*registry.Podcast{updated})
	if summaries[0].Err != nil {
		t.Fatalf("unexpected second fetch error: %v", summaries[0].Err)
	}
	if !summaries[0].NotModified {
		t.Fatal("expected not-modified short circuit")
	}
	if summaries[0].NewEpisodes != 0 {
		t.Fatalf("expected no new episodes, got %d", summaries[0].NewEpisodes)
	}
	if requests != 2 {
		t.Fatalf("expected 2 requests, got %d", requests)
	}
}

// feedBaseURL rebuilds the test server's base URL from the incoming request so
// enclosure URLs in the served feed point back at the same server.
func feedBaseURL(r *http.Request) string {
	return "http://" + r.Host
}

const extendedFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Show</title>
    <item>
      <title>Episode One</title>
      <guid>guid-ep1</guid>
      <pubDate>Mon, 03 Aug 2026 10:00:00 GMT</pubDate>
      <enclosure url="%s/ep1.mp3" type="audio/mpeg" length="1024"/>
    </item>
    <item>
      <title>Episode Two</title>
      <guid>guid-ep2</guid>
      <pubDate>Tue, 04 Aug 2026 10:00:00 GMT</pubDate>
      <enclosure url="%s/ep2.mp3" type="audio/mpeg" length="2048"/>
    </item>
    <item>
      <title>Episode Three</title>
      <guid>guid-ep3</guid>
      <pubDate>Wed, 05 Aug 2026 10:00:00 GMT</pubDate>
      <enclosure url="%s/ep3.mp3" type="audio/mpeg" length="4096"/>
    </item>
  </channel>
</rss>`

func TestFetchAllRefetchRegistersOnlyNewEntries(t *testing.T) {
	// The server never sends cache validators, so the second pass re-parses
	// the full feed instead of short-circuiting on a 304.
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/rss+xml")
		base := feedBaseURL(r)
		if requests == 1 {
			fmt.Fprintf(w, sampleFeed, base, base)
			return
		}
		fmt.Fprintf(w, extendedFeed, base, base, base)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fetcher := feed.NewFetcher(cfg, store, nil)

	ctx := context.Background()
	podcast := testsupport.NewPodcast(t, store, server.URL+"/feed.xml", "Example Show")

	summaries := fetcher.FetchAll(ctx, []*registry.Podcast{podcast})
	if summaries[0].Err != nil {
		t.Fatalf("unexpected first fetch error: %v", summaries[0].Err)
	}
	if summaries[0].NewEpisodes != 2 {
		t.Fatalf("expected 2 new episodes on first pass, got %d", summaries[0].NewEpisodes)
	}

	// Advance one episode through the pipeline before re-fetching.
	discovered, err := store.ListByStatus(ctx, registry.StatusDiscovered, 0)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	done := discovered[0]
	if claimed, err := store.Claim(ctx, done.ID); err != nil || !claimed {
		t.Fatalf("Claim failed: claimed=%v err=%v", claimed, err)
	}
	if err := store.MarkDownloaded(ctx, done.ID, "/tmp/ep1.mp3"); err != nil {
		t.Fatalf("MarkDownloaded failed: %v", err)
	}

	summaries = fetcher.FetchAll(ctx, []*registry.Podcast{podcast})
	summary := summaries[0]
	if summary.Err != nil {
		t.Fatalf("unexpected second fetch error: %v", summary.Err)
	}
	if summary.NotModified {
		t.Fatal("expected a full re-parse, got not-modified")
	}
	if summary.SeenEntries != 3 {
		t.Fatalf("expected 3 playable entries on re-fetch, got %d", summary.SeenEntries)
	}
	if summary.NewEpisodes != 1 {
		t.Fatalf("expected exactly 1 new episode on re-fetch, got %d", summary.NewEpisodes)
	}

	episodes, err := store.ListByPodcast(ctx, podcast.ID, 0)
	if err != nil {
		t.Fatalf("ListByPodcast failed: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("expected 3 registered episodes, got %d", len(episodes))
	}

	// Re-registering an existing entry must not touch its status.
	refreshed, err := store.GetByID(ctx, done.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if refreshed.Status != registry.StatusDownloaded {
		t.Fatalf("expected downloaded episode untouched, got %s", refreshed.Status)
	}
	if refreshed.AudioPath != "/tmp/ep1.mp3" {
		t.Fatalf("expected audio path preserved, got %q", refreshed.AudioPath)
	}
}

func TestFetchAllIsolatesFeedFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, sampleFeed, "http://"+r.Host, "http://"+r.Host)
	}))
	defer good.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not xml at all")
	}))
	defer malformed.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fetcher := feed.NewFetcher(cfg, store, nil)

	ctx := context.Background()
	podcasts := []*registry.Podcast{
		testsupport.NewPodcast(t, store, broken.URL+"/feed.xml", "Broken"),
		testsupport.NewPodcast(t, store, good.URL+"/feed.xml", "Good"),
		testsupport.NewPodcast(t, store, malformed.URL+"/feed.xml", "Malformed"),
	}

	summaries := fetcher.FetchAll(ctx, podcasts)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	if summaries[0].Err == nil {
		t.Fatal("expected error for 500 feed")
	}
	if !errors.Is(summaries[0].Err, services.ErrTransient) {
		t.Fatalf("expected transient classification, got %v", summaries[0].Err)
	}
	if summaries[1].Err != nil {
		t.Fatalf("expected healthy feed to succeed, got %v", summaries[1].Err)
	}
	if summaries[1].NewEpisodes != 2 {
		t.Fatalf("expected 2 new episodes from healthy feed, got %d", summaries[1].NewEpisodes)
	}
	if summaries[2].Err == nil {
		t.Fatal("expected error for malformed feed")
	}
	if !errors.Is(summaries[2].Err, services.ErrParse) {
		t.Fatalf("expected parse classification, got %v", summaries[2].Err)
	}
}

func TestFetchAllRespectsEntryCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, sampleFeed, "http://"+r.Host, "http://"+r.Host)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Fetch.MaxEntriesPerFeed = 1
	store := testsupport.MustOpenStore(t, cfg)
	fetcher := feed.NewFetcher(cfg, store, nil)

	podcast := testsupport.NewPodcast(t, store, server.URL+"/feed.xml", "Capped")
	summaries := fetcher.FetchAll(context.Background(), []*registry.Podcast{podcast})
	if summaries[0].Err != nil {
		t.Fatalf("unexpected error: %v", summaries[0].Err)
	}
	if summaries[0].NewEpisodes != 1 {
		t.Fatalf("expected cap of 1 new episode, got %d", summaries[0].NewEpisodes)
	}
}
