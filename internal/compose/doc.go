// Package compose assembles the final narrated video from generated media.
//
// A composition job runs a fixed step sequence, each one an ffmpeg
// invocation: slideshow segments from still images (slide duration from the
// measured narration length), opening-clip normalization so the concat path
// can stream-copy, audio mux with -shortest, and subtitle burn-in. Every
// step validates its output file before the next step runs; a missing or
// zero-byte intermediate fails the job immediately.
//
// Working directories are uuid-named under staging, retained on failure for
// inspection, and removed by a small background scheduler after a grace
// delay on success.
package compose
