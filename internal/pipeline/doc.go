// Package pipeline drives the fetch and download cycle.
//
// RunOnce executes a single pass: recover state left by crashed or failed
// runs, sync configured podcasts into the registry, poll their feeds, then
// drain discovered episodes through the download worker. Start repeats
// RunOnce on the configured interval under a file lock that keeps a second
// daemon off the same registry. Per-feed and per-episode failures are
// absorbed into the run summary; a run only aborts when the registry or the
// storage root is unusable.
package pipeline
