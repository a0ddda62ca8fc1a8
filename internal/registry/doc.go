// Package registry persists podcasts and episodes in SQLite and exposes
// helpers for driving the episode lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, claim handling, stale-claim recovery, and status transitions that
// mirror the public lifecycle enum. Episode rows capture feed identity,
// enclosure details, retry accounting, and the on-disk audio path so the
// fetcher, downloader, and downstream workers can coordinate without
// additional state.
//
// Episode identity is a fingerprint of the owning podcast and the entry GUID
// (falling back to the enclosure URL); the UNIQUE constraint on it is what
// makes ingestion idempotent across overlapping feed windows and restarts.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add new statuses or columns, update schema.sql and bump
// schemaVersion.
package registry
