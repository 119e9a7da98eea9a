package segmentation

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"storyreel/internal/logging"
	"storyreel/internal/media/ffprobe"
)

// leadingSilenceWindow is how close to track start a silence must begin to
// count as head-room rather than a sentence boundary.
const leadingSilenceWindow = 0.05

// Interval is one sentence's time range within the narration.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns the interval length in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// SentenceBoundaries computes exactly sentenceCount intervals covering the
// narration from first speech onset to totalDuration. When fewer silences
// than needed exist the boundary count degrades gracefully; with zero usable
// silences a single full-length interval is returned and the caller falls
// back to its character-count heuristic.
func SentenceBoundaries(silences []SilenceInterval, totalDuration float64, sentenceCount int) []Interval {
	onset := 0.0
	usable := make([]SilenceInterval, 0, len(silences))
	for i, silence := range silences {
		if i == 0 && silence.Start <= leadingSilenceWindow {
			// Head-room before the first word, not a sentence boundary.
			onset = silence.End
			continue
		}
		usable = append(usable, silence)
	}
	if onset >= totalDuration {
		onset = 0
	}

	if sentenceCount <= 1 || len(usable) == 0 {
		return []Interval{{Start: onset, End: totalDuration}}
	}

	needed := sentenceCount - 1
	selected := topByDuration(usable, needed)
	sort.Slice(selected, func(a, b int) bool { return selected[a].Start < selected[b].Start })

	boundaries := make([]float64, 0, len(selected))
	for _, silence := range selected {
		mid := silence.Start + (silence.End-silence.Start)/2
		if mid > onset && mid < totalDuration {
			boundaries = append(boundaries, mid)
		}
	}

	intervals := make([]Interval, 0, len(boundaries)+1)
	prev := onset
	for _, boundary := range boundaries {
		intervals = append(intervals, Interval{Start: prev, End: boundary})
		prev = boundary
	}
	intervals = append(intervals, Interval{Start: prev, End: totalDuration})
	return intervals
}

// topByDuration selects the k longest silences, breaking duration ties by
// original order so results stay deterministic.
func topByDuration(silences []SilenceInterval, k int) []SilenceInterval {
	if k >= len(silences) {
		return append([]SilenceInterval(nil), silences...)
	}
	indexed := make([]int, len(silences))
	for i := range indexed {
		indexed[i] = i
	}
	sort.SliceStable(indexed, func(a, b int) bool {
		return silences[indexed[a]].Duration > silences[indexed[b]].Duration
	})
	picked := indexed[:k]
	sort.Ints(picked)
	out := make([]SilenceInterval, 0, k)
	for _, idx := range picked {
		out = append(out, silences[idx])
	}
	return out
}

// Engine ties silence detection to boundary computation for a narration file.
// BaseDir, when set, confines probed paths to the staging tree.
type Engine struct {
	FFmpegBinary  string
	FFprobeBinary string
	Timeout       time.Duration
	Logger        *slog.Logger
	BaseDir       string
}

// DetectSentenceBoundaries probes the narration's duration, detects its
// silences, and derives sentence intervals. Any detection failure degrades
// to a single interval spanning the whole track; it never surfaces an error
// because timing precision may degrade but the pipeline must not stop.
func (e *Engine) DetectSentenceBoundaries(ctx context.Context, audioPath string, sentenceCount int) []Interval {
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	probe, err := ffprobe.Inspect(ctx, e.FFprobeBinary, audioPath, e.Timeout, e.BaseDir)
	if err != nil {
		logger.Warn("narration probe failed, using single interval", logging.Error(err))
		return []Interval{{Start: 0, End: 0}}
	}
	total := probe.DurationSeconds()
	if total <= 0 {
		logger.Warn("narration has no measurable duration, using single interval")
		return []Interval{{Start: 0, End: 0}}
	}

	silences, err := DetectSilences(ctx, e.FFmpegBinary, audioPath, e.Timeout, e.BaseDir)
	if err != nil {
		logger.Warn("silence detection failed, using single interval",
			logging.Error(err),
			logging.Float64("total_duration", total),
		)
		return []Interval{{Start: 0, End: total}}
	}

	intervals := SentenceBoundaries(silences, total, sentenceCount)
	logger.Debug("sentence boundaries derived",
		logging.Int("sentences", sentenceCount),
		logging.Int("silences", len(silences)),
		logging.Int("intervals", len(intervals)),
	)
	return intervals
}
