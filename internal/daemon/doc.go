// Package daemon runs the background generation service: it enforces
// single-instance execution with a lock file, drives the workflow manager,
// schedules periodic feed reconciliation, and exposes the HTTP API the CLI
// talks to.
package daemon
