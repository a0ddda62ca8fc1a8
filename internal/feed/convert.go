package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"podpull/internal/registry"
)

// convertItem maps a parsed feed entry onto an episode. Entries without a
// playable enclosure are reported as not ok and skipped by the caller.
func convertItem(item *gofeed.Item) (*registry.Episode, bool) {
	if item == nil {
		return nil, false
	}
	audioURL := enclosureURL(item)
	if audioURL == "" {
		return nil, false
	}

	episode := &registry.Episode{
		GUID:        strings.TrimSpace(item.GUID),
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		AudioURL:    audioURL,
		PublishedAt: publishedAt(item),
	}
	if item.ITunesExt != nil {
		episode.DurationSeconds = parseDuration(item.ITunesExt.Duration)
	}
	return episode, true
}

// enclosureURL picks the first playable media URL from an entry: enclosures
// first, then media:content extensions.
func enclosureURL(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if isPlayableType(enclosure.Type) {
			return enclosure.URL
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			url := content.Attrs["url"]
			if url == "" {
				continue
			}
			if isPlayableType(content.Attrs["type"]) {
				return url
			}
		}
	}
	return ""
}

// isPlayableType accepts audio and video MIME types. An empty type is trusted;
// plenty of feeds omit it on perfectly good enclosures.
func isPlayableType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return true
	}
	return strings.HasPrefix(mimeType, "audio/") || strings.HasPrefix(mimeType, "video/")
}

// publishedAt resolves an entry timestamp, falling back to the update time
// and finally to now so undated entries still sort deterministically.
func publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Now().UTC()
}

// parseDuration understands the iTunes duration forms: HH:MM:SS, MM:SS, and
// bare seconds. Anything unparseable is zero.
func parseDuration(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0
	}
	var total int64
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
