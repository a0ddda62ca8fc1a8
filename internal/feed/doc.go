// Package feed polls podcast RSS/Atom feeds and records discovered episodes
// in the registry.
//
// The Fetcher issues conditional GETs using the ETag and Last-Modified values
// stored per podcast, parses responses with gofeed, and upserts every entry
// that carries a playable enclosure. Feeds are fetched under a bounded
// concurrency limit with a shared outbound rate limiter; one feed failing
// never disturbs its siblings, each feed's outcome lands in its own Summary.
package feed
