// Package services defines shared error utilities consumed by the fetcher,
// downloader, and pipeline driver.
//
// Structured error markers plus the Wrap helper keep failure classification
// uniform across components: transient network trouble, malformed feeds,
// exhausted disk, and configuration mistakes each carry their own sentinel so
// callers can decide between retrying and surfacing the problem.
package services
