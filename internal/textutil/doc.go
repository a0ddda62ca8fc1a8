// Package textutil provides text helpers shared across the pipeline:
// filesystem-safe filename sanitization and lowercase slugs used to build
// deterministic audio storage paths for podcasts and episodes.
//
// Slugs fold Unicode to ASCII (diacritics are stripped via NFKD
// decomposition), lowercase the result, and collapse every other run of
// characters into single hyphens, so "Économie & Société!" becomes
// "economie-societe".
package textutil
