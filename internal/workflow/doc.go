// Package workflow orchestrates the generation pipeline over the sqlite job
// store. A pool of workers claims ready jobs, runs the matching stage handler
// under a per-stage timeout with heartbeats, and advances the job through the
// status machine until it is completed or failed. Failures are classified via
// the services error taxonomy and surfaced as push notifications; retries live
// inside the stages, never here.
package workflow
