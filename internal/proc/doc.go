// Package proc executes external media tools with explicit timeouts,
// combined output capture, and forced process-group kill. Path-like
// arguments are validated against an allowed base directory before
// execution because narration text, scene identifiers, and file paths
// all flow into command argument lists.
package proc
