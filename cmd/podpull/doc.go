// Package main hosts the podpull CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot pipeline runs, the long-lived
// daemon with its status API, registry inspection, retry of failed episodes,
// and configuration scaffolding. It centralizes configuration resolution and
// registry access so subcommands can focus on user experience instead of
// wiring.
package main
