// Package api serves the local HTTP status surface. It exposes read-only
// registry views, a retry action for failed episodes, and the Prometheus
// scrape endpoint. The server binds loopback by default and carries no
// authentication.
package api
