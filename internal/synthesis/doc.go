// Package synthesis turns a drafted script into one published episode audio
// file. Segments are synthesized concurrently against the TTS backend, with
// per-segment timeouts and retries, then concatenated in script order between
// the configured intro and outro clips and uploaded to the artifact store.
package synthesis
