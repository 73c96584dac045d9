// Package api defines the transport types shared by the daemon's HTTP API and
// the CLI, the job intake service that validates generation requests, and the
// HTTP client the CLI uses to talk to a running daemon.
package api
