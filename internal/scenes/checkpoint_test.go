package scenes_test

import (
	"context"
	"errors"
	"testing"

	"storyreel/internal/scenes"
	"storyreel/internal/testsupport"
)

func advanceScene(t *testing.T, store *scenes.Store, scene *scenes.Scene, path ...scenes.Status) {
	t.Helper()
	for _, next := range path {
		scene.Status = next
		if err := store.UpdateScene(context.Background(), scene); err != nil {
			t.Fatalf("UpdateScene to %s failed: %v", next, err)
		}
	}
}

func TestCheckpointDerivation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	video := testsupport.NewVideo(t, store, "glaciers")
	testsupport.NewScene(t, store, video.ID, 0, "formation")
	testsupport.NewScene(t, store, video.ID, 1, "movement")
	testsupport.NewScene(t, store, video.ID, 2, "retreat")

	ctx := context.Background()

	first, err := store.ClaimNextScene(ctx, video.ID)
	if err != nil {
		t.Fatalf("ClaimNextScene failed: %v", err)
	}
	advanceScene(t, store, first, scenes.StatusMediaReady, scenes.StatusTTSReady, scenes.StatusCompleted)

	second, err := store.ClaimNextScene(ctx, video.ID)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if err := store.MarkSceneFailed(ctx, second.ID, "tts quota"); err != nil {
		t.Fatalf("MarkSceneFailed failed: %v", err)
	}

	cp, err := store.CheckpointForVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("CheckpointForVideo failed: %v", err)
	}
	if cp.TotalCount != 3 || cp.CompletedCount != 1 || cp.FailedCount != 1 {
		t.Fatalf("unexpected counts: %#v", cp)
	}
	if cp.Status != scenes.CheckpointInProgress {
		t.Fatalf("status = %s", cp.Status)
	}
	if !cp.CanResume {
		t.Fatal("expected CanResume while scenes remain")
	}
	if len(cp.CompletedSceneIDs) != 1 || cp.CompletedSceneIDs[0] != first.ID {
		t.Fatalf("completed ids = %v", cp.CompletedSceneIDs)
	}
	if len(cp.FailedSceneIDs) != 1 || cp.FailedSceneIDs[0] != second.ID {
		t.Fatalf("failed ids = %v", cp.FailedSceneIDs)
	}
	for _, completed := range cp.CompletedSceneIDs {
		for _, failed := range cp.FailedSceneIDs {
			if completed == failed {
				t.Fatalf("scene %d in both partitions", completed)
			}
		}
	}
}

func TestCheckpointIdempotentDerivation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	video := testsupport.NewVideo(t, store, "origami")
	testsupport.NewScene(t, store, video.ID, 0, "valley folds")

	ctx := context.Background()
	first, derr := store.DeriveCheckpoint(ctx, video.ID)
	if derr != nil {
		t.Fatalf("DeriveCheckpoint failed: %v", derr)
	}
	again, derr := store.DeriveCheckpoint(ctx, video.ID)
	if derr != nil {
		t.Fatalf("second DeriveCheckpoint failed: %v", derr)
	}
	if first.Status != again.Status || first.TotalCount != again.TotalCount ||
		first.CompletedCount != again.CompletedCount || first.FailedCount != again.FailedCount {
		t.Fatalf("derivation not stable: %#v vs %#v", first, again)
	}
}

func TestCheckpointCompletedAndNotResumable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	video := testsupport.NewVideo(t, store, "lighthouses")
	testsupport.NewScene(t, store, video.ID, 0, "optics")

	ctx := context.Background()
	claimed, err := store.ClaimNextScene(ctx, video.ID)
	if err != nil {
		t.Fatalf("ClaimNextScene failed: %v", err)
	}
	advanceScene(t, store, claimed, scenes.StatusMediaReady, scenes.StatusTTSReady, scenes.StatusCompleted)

	cp, err := store.CheckpointForVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("CheckpointForVideo failed: %v", err)
	}
	if cp.Status != scenes.CheckpointCompleted {
		t.Fatalf("status = %s", cp.Status)
	}
	if cp.CanResume {
		t.Fatal("completed video should not be resumable")
	}
}

func TestCheckpointFailedWhenNothingActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	video := testsupport.NewVideo(t, store, "submarines")
	testsupport.NewScene(t, store, video.ID, 0, "ballast")

	ctx := context.Background()
	claimed, err := store.ClaimNextScene(ctx, video.ID)
	if err != nil {
		t.Fatalf("ClaimNextScene failed: %v", err)
	}
	if err := store.MarkSceneFailed(ctx, claimed.ID, "image model rejected prompt"); err != nil {
		t.Fatalf("MarkSceneFailed failed: %v", err)
	}

	cp, err := store.CheckpointForVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("CheckpointForVideo failed: %v", err)
	}
	if cp.Status != scenes.CheckpointFailed {
		t.Fatalf("status = %s", cp.Status)
	}
	if !cp.CanResume {
		t.Fatal("failed video should be resumable after retry")
	}
}

func TestCheckpointMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	video := testsupport.NewVideo(t, store, "untouched")

	if _, err := store.CheckpointForVideo(context.Background(), video.ID); !errors.Is(err, scenes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
