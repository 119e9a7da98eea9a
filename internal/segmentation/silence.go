package segmentation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storyreel/internal/proc"
)

const (
	// noiseFloorDB is the energy threshold below which audio counts as silence.
	noiseFloorDB = -30
	// minSilenceSeconds is the shortest gap silencedetect reports.
	minSilenceSeconds = 0.1
)

// SilenceInterval is one detected sub-threshold range in a narration track.
type SilenceInterval struct {
	Start    float64
	End      float64
	Duration float64
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[0-9.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[0-9.]+)\s*\|\s*silence_duration:\s*(-?[0-9.]+)`)
)

// DetectSilences runs ffmpeg silencedetect over the audio file and parses
// the reported intervals from the diagnostic stream. A non-empty allowedBase
// confines the audio path to that directory tree.
func DetectSilences(ctx context.Context, ffmpegBinary, audioPath string, timeout time.Duration, allowedBase string) ([]SilenceInterval, error) {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	filter := fmt.Sprintf("silencedetect=noise=%ddB:d=%g", noiseFloorDB, minSilenceSeconds)
	result, err := proc.Run(ctx, proc.Command{
		Name:        ffmpegBinary,
		Args:        []string{"-hide_banner", "-nostats", "-i", audioPath, "-af", filter, "-f", "null", "-"},
		Timeout:     timeout,
		AllowedBase: allowedBase,
	})
	if err != nil {
		return nil, fmt.Errorf("silence detection: %w", err)
	}
	return parseSilences(result.Output), nil
}

// parseSilences pairs silence_start lines with the following silence_end
// line. A trailing start without an end (silence running to EOF) is dropped;
// the final interval always ends at totalDuration anyway.
func parseSilences(output string) []SilenceInterval {
	var silences []SilenceInterval
	var pendingStart *float64

	for _, line := range strings.Split(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			start, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				if start < 0 {
					start = 0
				}
				pendingStart = &start
			}
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && pendingStart != nil {
			end, endErr := strconv.ParseFloat(m[1], 64)
			duration, durErr := strconv.ParseFloat(m[2], 64)
			if endErr == nil && durErr == nil && end > *pendingStart {
				if duration <= 0 {
					duration = end - *pendingStart
				}
				silences = append(silences, SilenceInterval{
					Start:    *pendingStart,
					End:      end,
					Duration: duration,
				})
			}
			pendingStart = nil
		}
	}
	return silences
}
