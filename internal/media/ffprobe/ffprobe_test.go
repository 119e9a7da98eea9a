package ffprobe

import "testing"

func TestDurationSecondsPrefersFormat(t *testing.T) {
	r := Result{
		Format:  Format{Duration: "12.5"},
		Streams: []Stream{{CodecType: "audio", Duration: "12.4"}},
	}
	if got := r.DurationSeconds(); got != 12.5 {
		t.Fatalf("DurationSeconds = %v", got)
	}
}

func TestDurationSecondsFallsBackToStream(t *testing.T) {
	r := Result{Streams: []Stream{{CodecType: "audio", Duration: "3.25"}}}
	if got := r.DurationSeconds(); got != 3.25 {
		t.Fatalf("DurationSeconds = %v", got)
	}
}

func TestVideoDimensions(t *testing.T) {
	r := Result{Streams: []Stream{
		{CodecType: "audio"},
		{CodecType: "video", Width: 1920, Height: 1080},
	}}
	w, h, ok := r.VideoDimensions()
	if !ok || w != 1920 || h != 1080 {
		t.Fatalf("VideoDimensions = %d x %d, %v", w, h, ok)
	}
}

func TestFrameRateParsesRatio(t *testing.T) {
	r := Result{Streams: []Stream{{CodecType: "video", AvgFrameRate: "30000/1001"}}}
	fps, ok := r.FrameRate()
	if !ok {
		t.Fatal("expected frame rate")
	}
	if fps < 29.9 || fps > 30.0 {
		t.Fatalf("FrameRate = %v", fps)
	}
}

func TestFrameRateRejectsZeroDenominator(t *testing.T) {
	r := Result{Streams: []Stream{{CodecType: "video", AvgFrameRate: "30/0"}}}
	if _, ok := r.FrameRate(); ok {
		t.Fatal("expected no frame rate for zero denominator")
	}
}
