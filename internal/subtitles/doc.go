// Package subtitles renders per-scene SRT files from narration sentences and
// the speech intervals detected by the segmentation engine. When interval
// detection degrades, cue timing falls back to spreading the audio duration
// proportionally by sentence length.
package subtitles
