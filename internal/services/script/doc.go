// Package script generates narrated slideshow scripts from user topics via
// the shared chat client. Output is validated structurally before any scene
// rows are created; malformed payloads surface as ErrMalformedResponse so the
// dispatcher counts them as retryable attempts.
package script
