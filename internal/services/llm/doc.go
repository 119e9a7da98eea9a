// Package llm provides an OpenAI-compatible chat completion client used by
// the script service.
//
// The client sends system/user prompts with a JSON-only response format and
// decodes the payload while tolerating common provider quirks (code fences,
// streaming deltas returned for non-streaming requests, prose wrappers).
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, malformed payloads, and
// network timeouts with exponential backoff, honoring Retry-After when the
// provider sends one. Context cancellation aborts retries immediately.
// Failures unwrap to the sentinels in the services package so the dispatcher
// and rate limiter can classify them.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON / CompleteJSONWithModel: send prompts, receive JSON.
// Client.HealthCheck: verify API key and model availability.
package llm
