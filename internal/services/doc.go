// Package services defines shared utilities consumed by the workflow stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp video/scene identifiers, stage names,
//     correlation IDs, and per-request generation settings (API key, output
//     format) so nothing relies on ambient process-wide state.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the retry taxonomy (transient vs content-policy vs fatal).
//   - The ContentPolicyError payload that lets callers branch on safety
//     filter details without string parsing.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
