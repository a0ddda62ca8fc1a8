package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podpull/internal/config"
	"podpull/internal/registry"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
storage_root = %q
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[[feeds]]
name = "Example Show"
url = "https://example.com/feed.xml"
`,
		filepath.Join(base, "audio"),
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seedStore(t *testing.T, configPath string) *registry.Store {
	t.Helper()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStatusCommandEmptyRegistry(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	stdout, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "== Episodes ==") {
		t.Fatalf("missing episodes section:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Total:") {
		t.Fatalf("missing totals:\n%s", stdout)
	}
}

func TestEpisodesCommandRejectsUnknownStatus(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	_, _, err := runCLI(t, configPath, "episodes", "--status", "bogus")
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("err = %v, want unknown status", err)
	}
}

func TestRetryCommandRequeuesFailedEpisode(t *testing.T) {
	ctx := context.Background()
	configPath := writeTestConfig(t, t.TempDir())
	store := seedStore(t, configPath)

	podcast, err := store.UpsertPodcast(ctx, "https://example.com/feed.xml", "Example Show")
	if err != nil {
		t.Fatalf("UpsertPodcast: %v", err)
	}
	episode, _, err := store.UpsertEpisode(ctx, &registry.Episode{
		PodcastID: podcast.ID,
		GUID:      "ep-1",
		Title:     "Pilot",
		AudioURL:  "https://example.com/ep-1.mp3",
	})
	if err != nil {
		t.Fatalf("UpsertEpisode: %v", err)
	}
	if claimed, err := store.Claim(ctx, episode.ID); err != nil || !claimed {
		t.Fatalf("Claim: claimed=%v err=%v", claimed, err)
	}
	if err := store.MarkFailed(ctx, episode.ID, "connection reset"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	stdout, _, err := runCLI(t, configPath, "retry", fmt.Sprintf("%d", episode.ID))
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !strings.Contains(stdout, "requeued as discovered") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}

	requeued, err := store.GetByID(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if requeued.Status != registry.StatusDiscovered {
		t.Fatalf("status = %s, want discovered", requeued.Status)
	}
}

func TestRetryCommandRejectsActiveEpisode(t *testing.T) {
	ctx := context.Background()
	configPath := writeTestConfig(t, t.TempDir())
	store := seedStore(t, configPath)

	podcast, err := store.UpsertPodcast(ctx, "https://example.com/feed.xml", "Example Show")
	if err != nil {
		t.Fatalf("UpsertPodcast: %v", err)
	}
	episode, _, err := store.UpsertEpisode(ctx, &registry.Episode{
		PodcastID: podcast.ID,
		GUID:      "ep-1",
		Title:     "Pilot",
		AudioURL:  "https://example.com/ep-1.mp3",
	})
	if err != nil {
		t.Fatalf("UpsertEpisode: %v", err)
	}

	_, _, err = runCLI(t, configPath, "retry", fmt.Sprintf("%d", episode.ID))
	if err == nil || !strings.Contains(err.Error(), "only failed or abandoned") {
		t.Fatalf("err = %v, want retry rejection", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	stdout, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, "Wrote sample configuration") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsResolvedValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	stdout, _, err := runCLI(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"Storage root:", "Fetch interval:", "Feeds:"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("missing %q in output:\n%s", want, stdout)
		}
	}
}
