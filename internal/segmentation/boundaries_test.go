package segmentation

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTopKSilencesScenario(t *testing.T) {
	// 4 silences of durations [0.05, 0.6, 0.08, 0.5]s in a 20s clip with
	// sentenceCount=3: boundaries come from the two longest (0.6s, 0.5s).
	silences := []SilenceInterval{
		{Start: 2.0, End: 2.05, Duration: 0.05},
		{Start: 5.0, End: 5.6, Duration: 0.6},
		{Start: 9.0, End: 9.08, Duration: 0.08},
		{Start: 14.0, End: 14.5, Duration: 0.5},
	}
	intervals := SentenceBoundaries(silences, 20, 3)
	if len(intervals) != 3 {
		t.Fatalf("expected 3 intervals, got %d", len(intervals))
	}
	if !almostEqual(intervals[0].End, 5.3) {
		t.Fatalf("first boundary should be midpoint of the 0.6s silence, got %v", intervals[0].End)
	}
	if !almostEqual(intervals[1].End, 14.25) {
		t.Fatalf("second boundary should be midpoint of the 0.5s silence, got %v", intervals[1].End)
	}

	total := 0.0
	for i, interval := range intervals {
		total += interval.Duration()
		if i > 0 && !almostEqual(interval.Start, intervals[i-1].End) {
			t.Fatalf("gap between interval %d and %d", i-1, i)
		}
	}
	if !almostEqual(total, 20) {
		t.Fatalf("intervals must sum to the full track, got %v", total)
	}
}

func TestLeadingSilenceBecomesOnset(t *testing.T) {
	silences := []SilenceInterval{
		{Start: 0.0, End: 0.8, Duration: 0.8},
		{Start: 5.0, End: 5.4, Duration: 0.4},
	}
	intervals := SentenceBoundaries(silences, 10, 2)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if !almostEqual(intervals[0].Start, 0.8) {
		t.Fatalf("first interval must start at speech onset, got %v", intervals[0].Start)
	}
	if !almostEqual(intervals[1].End, 10) {
		t.Fatalf("last interval must end at total duration, got %v", intervals[1].End)
	}
}

func TestSingleSentence(t *testing.T) {
	silences := []SilenceInterval{
		{Start: 0.0, End: 0.3, Duration: 0.3},
		{Start: 4.0, End: 4.5, Duration: 0.5},
	}
	intervals := SentenceBoundaries(silences, 9, 1)
	if len(intervals) != 1 {
		t.Fatalf("expected single interval, got %d", len(intervals))
	}
	if !almostEqual(intervals[0].Start, 0.3) || !almostEqual(intervals[0].End, 9) {
		t.Fatalf("unexpected interval %+v", intervals[0])
	}
}

func TestZeroSilencesDegradesToSingleInterval(t *testing.T) {
	intervals := SentenceBoundaries(nil, 12, 4)
	if len(intervals) != 1 {
		t.Fatalf("expected degraded single interval, got %d", len(intervals))
	}
	if !almostEqual(intervals[0].Start, 0) || !almostEqual(intervals[0].End, 12) {
		t.Fatalf("unexpected interval %+v", intervals[0])
	}
}

func TestFewerSilencesThanNeededUsesAll(t *testing.T) {
	silences := []SilenceInterval{
		{Start: 3.0, End: 3.4, Duration: 0.4},
		{Start: 7.0, End: 7.3, Duration: 0.3},
	}
	// Five sentences need four boundaries but only two silences exist.
	intervals := SentenceBoundaries(silences, 15, 5)
	if len(intervals) != 3 {
		t.Fatalf("expected graceful degradation to 3 intervals, got %d", len(intervals))
	}
}

func TestExactCountWhenEnoughSilences(t *testing.T) {
	silences := make([]SilenceInterval, 0, 8)
	for i := 1; i <= 8; i++ {
		start := float64(i) * 2
		silences = append(silences, SilenceInterval{
			Start:    start,
			End:      start + 0.2 + float64(i)*0.01,
			Duration: 0.2 + float64(i)*0.01,
		})
	}
	intervals := SentenceBoundaries(silences, 20, 5)
	if len(intervals) != 5 {
		t.Fatalf("expected exactly 5 intervals, got %d", len(intervals))
	}
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start < intervals[i-1].End {
			t.Fatalf("intervals overlap at %d", i)
		}
	}
}

func TestDurationTiesBreakByOriginalOrder(t *testing.T) {
	silences := []SilenceInterval{
		{Start: 2.0, End: 2.5, Duration: 0.5},
		{Start: 6.0, End: 6.5, Duration: 0.5},
		{Start: 9.0, End: 9.5, Duration: 0.5},
	}
	intervals := SentenceBoundaries(silences, 12, 2)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	// The earliest of the tied silences wins.
	if !almostEqual(intervals[0].End, 2.25) {
		t.Fatalf("tie should break to the first silence, boundary %v", intervals[0].End)
	}
}
