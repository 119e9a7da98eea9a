package stage

import (
	"errors"
	"testing"

	"storyreel/internal/scenes"
	"storyreel/internal/services"
)

func TestRequireNarration_Present(t *testing.T) {
	scene := &scenes.Scene{Narration: "The tide rises twice a day."}
	if err := RequireNarration(scene); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireNarration_Missing(t *testing.T) {
	err := RequireNarration(&scenes.Scene{Narration: "   "})
	if err == nil {
		t.Fatal("expected error for blank narration")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireMedia_NilScene(t *testing.T) {
	if err := RequireMedia(nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireAudio(t *testing.T) {
	if err := RequireAudio(&scenes.Scene{AudioURL: "/tmp/a.wav"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RequireAudio(&scenes.Scene{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
