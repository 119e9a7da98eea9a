// Package ratelimit paces outbound generation calls per model. Each model
// name owns one limiter whose delay grows on observed errors and shrinks
// after sustained success, clamped to a configured range. All scene workers
// targeting the same model must acquire admission through the shared limiter
// rather than calling the API directly.
package ratelimit
