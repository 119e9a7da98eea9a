// Package segmentation derives per-sentence time intervals from a narration
// waveform. Silence detection runs through ffmpeg's silencedetect filter;
// the top-K longest silences become sentence boundaries because pauses
// between sentences are reliably longer than articulation gaps within them.
// Detection failure degrades to a single full-length interval so timing
// precision can degrade without stopping the pipeline.
package segmentation
