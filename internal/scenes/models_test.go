package scenes

import "testing"

func TestCanTransitionLifecycle(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusGenerating},
		{StatusGenerating, StatusMediaReady},
		{StatusMediaReady, StatusTTSReady},
		{StatusTTSReady, StatusCompleted},
		{StatusGenerating, StatusFailed},
		{StatusFailed, StatusRegenerating},
		{StatusCompleted, StatusRegenerating},
		{StatusRegenerating, StatusGenerating},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusCompleted, StatusGenerating},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusCompleted},
		{StatusMediaReady, StatusPending},
		{StatusTTSReady, StatusGenerating},
	}
	for _, tc := range forbidden {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("  Media_Ready ")
	if !ok || status != StatusMediaReady {
		t.Fatalf("ParseStatus returned %q ok=%v", status, ok)
	}
	if _, ok := ParseStatus("bogus"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestResetForRegeneration(t *testing.T) {
	scene := Scene{
		Status:      StatusCompleted,
		MediaURL:    "media.mp4",
		AudioURL:    "audio.wav",
		SubtitleURL: "subs.srt",
		ComposedURL: "final.mp4",
	}

	full := scene
	full.ResetForRegeneration(false)
	if full.Status != StatusRegenerating {
		t.Fatalf("status = %s", full.Status)
	}
	if full.MediaURL != "" || full.AudioURL != "" || full.SubtitleURL != "" || full.ComposedURL != "" {
		t.Fatalf("expected all artifacts cleared: %#v", full)
	}
	if full.RetryCount != 1 {
		t.Fatalf("retry count = %d", full.RetryCount)
	}

	mediaOnly := scene
	mediaOnly.ResetForRegeneration(true)
	if mediaOnly.MediaURL != "" || mediaOnly.ComposedURL != "" {
		t.Fatalf("expected visual artifacts cleared: %#v", mediaOnly)
	}
	if mediaOnly.AudioURL != "audio.wav" || mediaOnly.SubtitleURL != "subs.srt" {
		t.Fatalf("expected audio artifacts preserved: %#v", mediaOnly)
	}
}
