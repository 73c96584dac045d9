// Package llm provides an OpenRouter chat client for structured JSON
// completions.
//
// The drafting stage uses it to generate episode scripts: each configured
// backend model gets its own Client, and the drafter walks the chain until
// one produces a valid script.
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: parse model output, tolerating code fences and wrapper text.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
package llm
