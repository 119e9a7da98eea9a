package testsupport

import (
	"context"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/scenes"
)

// MustOpenStore opens a scenes.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *scenes.Store {
	t.Helper()

	store, err := scenes.Open(cfg)
	if err != nil {
		t.Fatalf("scenes.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewVideo creates a video job for tests using the provided store.
func NewVideo(t testing.TB, store *scenes.Store, prompt string) *scenes.Video {
	t.Helper()

	video, err := store.NewVideo(context.Background(), prompt, "landscape")
	if err != nil {
		t.Fatalf("store.NewVideo: %v", err)
	}
	return video
}

// NewScene appends a slide scene with the given narration to a test video.
func NewScene(t testing.TB, store *scenes.Store, videoID int64, ordering int, narration string) *scenes.Scene {
	t.Helper()

	scene, err := store.AddScene(context.Background(), videoID, ordering, scenes.TypeSlide, narration, "prompt for "+narration)
	if err != nil {
		t.Fatalf("store.AddScene: %v", err)
	}
	return scene
}
