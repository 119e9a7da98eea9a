package segmentation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storyreel/internal/logging"
	"storyreel/internal/proc"
)

const (
	minTempoRatio = 0.5
	maxTempoRatio = 2.0
)

// AdjustTempo re-times a narration track by ratio (>1 speeds up). The ratio
// is silently clamped to what a single atempo filter supports, and any
// failure returns the original path untouched: downstream steps assume the
// audio file exists, so tempo adjustment is strictly best effort.
func AdjustTempo(ctx context.Context, logger *slog.Logger, ffmpegBinary, inputPath, outputPath string, ratio float64, timeout time.Duration, allowedBase string) string {
	if logger == nil {
		logger = logging.NewNop()
	}
	if ratio < minTempoRatio {
		ratio = minTempoRatio
	}
	if ratio > maxTempoRatio {
		ratio = maxTempoRatio
	}
	if ratio == 1.0 {
		return inputPath
	}
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}

	_, err := proc.Run(ctx, proc.Command{
		Name: ffmpegBinary,
		Args: []string{
			"-y", "-hide_banner", "-i", inputPath,
			"-filter:a", fmt.Sprintf("atempo=%g", ratio),
			outputPath,
		},
		Timeout:     timeout,
		AllowedBase: allowedBase,
	})
	if err != nil {
		logger.Warn("tempo adjustment failed, keeping original narration",
			logging.Float64("ratio", ratio),
			logging.Error(err),
		)
		return inputPath
	}
	if err := proc.ValidateOutput(outputPath); err != nil {
		logger.Warn("tempo adjustment produced no output, keeping original narration",
			logging.Error(err),
		)
		return inputPath
	}
	return outputPath
}
