// Package tts provides an ElevenLabs speech synthesis client.
//
// The synthesis stage uses it to render one audio clip per script segment.
// Voice names from configuration or per-job overrides resolve to service
// identifiers through the cached voice roster; raw identifiers pass through
// unchanged. Retries are the caller's responsibility; IsRetryable classifies
// which failures are worth another attempt.
package tts
