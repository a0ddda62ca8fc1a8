package registry

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an episode.
type Status string

const (
	StatusDiscovered   Status = "discovered"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusSummarizing  Status = "summarizing"
	StatusSummarized   Status = "summarized"
	StatusDigested     Status = "digested"
	StatusFailed       Status = "failed"
	StatusAbandoned    Status = "abandoned"
)

var allStatuses = []Status{
	StatusDiscovered,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscribing,
	StatusTranscribed,
	StatusSummarizing,
	StatusSummarized,
	StatusDigested,
	StatusFailed,
	StatusAbandoned,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// processingStatuses are the in-flight states a worker holds while operating
// on an episode. Crashing inside one of these leaves a claim to reclaim.
var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusTranscribing: {},
	StatusSummarizing:  {},
}

// forwardTransitions maps each status to the settled statuses reachable from
// it. Failed is additionally reachable from every active status and is
// handled separately in MarkFailed.
var forwardTransitions = map[Status][]Status{
	StatusDiscovered:   {StatusDownloading},
	StatusDownloading:  {StatusDownloaded, StatusDiscovered},
	StatusDownloaded:   {StatusTranscribing},
	StatusTranscribing: {StatusTranscribed, StatusDownloaded},
	StatusTranscribed:  {StatusSummarizing},
	StatusSummarizing:  {StatusSummarized, StatusTranscribed},
	StatusSummarized:   {StatusDigested},
}

// transitionSources returns the statuses from which next is a legal forward
// transition.
func transitionSources(next Status) []Status {
	var sources []Status
	for from, targets := range forwardTransitions {
		for _, target := range targets {
			if target == next {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// Podcast represents a feed subscription persisted in SQLite.
type Podcast struct {
	ID            int64
	FeedURL       string
	Title         string
	Slug          string
	ETag          string
	LastModified  string
	LastFetchedAt *time.Time
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Episode represents an episode row persisted in SQLite.
type Episode struct {
	ID              int64
	PodcastID       int64
	GUID            string
	Fingerprint     string
	Title           string
	Description     string
	AudioURL        string
	PublishedAt     time.Time
	DurationSeconds int64
	Status          Status
	ResumeStatus    Status
	ErrorMessage    string
	RetryCount      int
	AudioPath       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HealthSummary describes aggregated episode counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Discovered int
	InFlight   int
	Downloaded int
	Completed  int
	Failed     int
	Abandoned  int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing reports whether the episode is held by an in-flight worker.
func (e Episode) IsProcessing() bool {
	return IsProcessingStatus(e.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status Status) bool {
	return status == StatusDigested || status == StatusAbandoned
}
