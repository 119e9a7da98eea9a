// Package ffprobe inspects media containers with the ffprobe tool and
// exposes the duration, resolution, and frame-rate fields the composition
// pipeline needs for slide timing and resolution reconciliation.
package ffprobe
