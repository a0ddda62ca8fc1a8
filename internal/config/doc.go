// Package config loads, normalizes, and validates podpull configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PODPULL_USER_AGENT. The Config type centralizes every knob the daemon and
// CLI need, allowing storage directories and feed subscriptions to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
