package segmentation

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleOutput = `
[silencedetect @ 0x7f9] silence_start: 0.0000
[silencedetect @ 0x7f9] silence_end: 0.52 | silence_duration: 0.52
[silencedetect @ 0x7f9] silence_start: 4.8123
[silencedetect @ 0x7f9] silence_end: 5.4 | silence_duration: 0.5877
size=N/A time=00:00:20.00 bitrate=N/A speed= 312x
`

func TestParseSilences(t *testing.T) {
	silences := parseSilences(sampleOutput)
	if len(silences) != 2 {
		t.Fatalf("expected 2 silences, got %d", len(silences))
	}
	if silences[0].Start != 0 || silences[0].End != 0.52 {
		t.Fatalf("unexpected first silence %+v", silences[0])
	}
	if silences[1].Duration != 0.5877 {
		t.Fatalf("unexpected duration %v", silences[1].Duration)
	}
}

func TestParseSilencesDropsUnterminatedStart(t *testing.T) {
	output := "[silencedetect] silence_start: 18.2\n"
	if silences := parseSilences(output); len(silences) != 0 {
		t.Fatalf("expected no silences, got %d", len(silences))
	}
}

func TestParseSilencesClampsNegativeStart(t *testing.T) {
	output := "[silencedetect] silence_start: -0.01\n[silencedetect] silence_end: 0.4 | silence_duration: 0.41\n"
	silences := parseSilences(output)
	if len(silences) != 1 || silences[0].Start != 0 {
		t.Fatalf("expected clamped start, got %+v", silences)
	}
}

func TestParseSilencesEmptyOutput(t *testing.T) {
	if silences := parseSilences("frame=1 fps=0"); silences != nil {
		t.Fatalf("expected nil, got %v", silences)
	}
}

func TestDetectSilencesConfinesAudioPath(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(t.TempDir(), "narration.wav")

	_, err := DetectSilences(context.Background(), "ffmpeg", outside, time.Second, base)
	if err == nil || !strings.Contains(err.Error(), "escapes base directory") {
		t.Fatalf("expected confinement error, got %v", err)
	}
}
