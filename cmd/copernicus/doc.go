// Command copernicus is the CLI for the Copernicus episode generation
// pipeline: it submits generation requests, inspects jobs, and manages the
// daemon's queue and feed over the HTTP API, falling back to direct store
// access when the daemon is down.
package main
