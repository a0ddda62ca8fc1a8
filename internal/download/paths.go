package download

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"podpull/internal/registry"
	"podpull/internal/textutil"
)

// partialSuffix marks in-flight transfers. Finished audio never carries it.
const partialSuffix = ".part"

var knownExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".m4b":  {},
	".aac":  {},
	".ogg":  {},
	".opus": {},
	".flac": {},
	".wav":  {},
	".mp4":  {},
	".webm": {},
}

var contentTypeExtensions = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/aac":   ".aac",
	"audio/ogg":   ".ogg",
	"audio/opus":  ".opus",
	"audio/flac":  ".flac",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"video/mp4":   ".mp4",
	"video/webm":  ".webm",
}

// TargetPath builds the final on-disk location for an episode's audio:
// {root}/{podcast-slug}/{YYYY-MM-DD}-{episode-slug}{ext}.
func TargetPath(root, podcastSlug string, episode *registry.Episode, contentType string) string {
	name := episode.PublishedAt.UTC().Format("2006-01-02") + "-" + textutil.Slug(episode.Title)
	return filepath.Join(root, podcastSlug, name+audioExtension(episode.AudioURL, contentType))
}

// audioExtension infers a file extension from the enclosure URL path, then
// the response Content-Type, then settles on mp3.
func audioExtension(audioURL, contentType string) string {
	if parsed, err := url.Parse(audioURL); err == nil {
		ext := strings.ToLower(path.Ext(parsed.Path))
		if _, ok := knownExtensions[ext]; ok {
			return ext
		}
	}
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if ext, ok := contentTypeExtensions[mimeType]; ok {
		return ext
	}
	return ".mp3"
}
