package scenes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CheckpointStatus summarizes how far a video's scene work has progressed.
type CheckpointStatus string

const (
	CheckpointInProgress CheckpointStatus = "in_progress"
	CheckpointCompleted  CheckpointStatus = "completed"
	CheckpointFailed     CheckpointStatus = "failed"
)

// Checkpoint is a derived read model of a video's scene progress. It is
// recomputed from scene rows after every status change, so deriving it twice
// in a row yields the same result.
type Checkpoint struct {
	VideoID           int64
	ProcessType       string
	Status            CheckpointStatus
	TotalCount        int
	CompletedCount    int
	FailedCount       int
	CompletedSceneIDs []int64
	FailedSceneIDs    []int64
	LastUpdated       time.Time
	CanResume         bool
}

const checkpointProcessType = "video_generation"

// DeriveCheckpoint computes the checkpoint for a video from its current scene
// rows without touching the checkpoints table.
func (s *Store) DeriveCheckpoint(ctx context.Context, videoID int64) (*Checkpoint, error) {
	list, err := s.ScenesForVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	cp := &Checkpoint{
		VideoID:     videoID,
		ProcessType: checkpointProcessType,
		TotalCount:  len(list),
		LastUpdated: time.Now().UTC(),
	}

	active := 0
	for _, scene := range list {
		switch scene.Status {
		case StatusCompleted:
			cp.CompletedCount++
			cp.CompletedSceneIDs = append(cp.CompletedSceneIDs, scene.ID)
		case StatusFailed:
			cp.FailedCount++
			cp.FailedSceneIDs = append(cp.FailedSceneIDs, scene.ID)
		default:
			active++
		}
	}

	switch {
	case cp.TotalCount > 0 && cp.CompletedCount == cp.TotalCount:
		cp.Status = CheckpointCompleted
	case cp.FailedCount > 0 && active == 0:
		cp.Status = CheckpointFailed
	default:
		cp.Status = CheckpointInProgress
	}
	cp.CanResume = cp.TotalCount > 0 && cp.CompletedCount < cp.TotalCount
	return cp, nil
}

// RecordCheckpoint derives and persists the checkpoint row for a video.
func (s *Store) RecordCheckpoint(ctx context.Context, videoID int64) error {
	cp, err := s.DeriveCheckpoint(ctx, videoID)
	if err != nil {
		return err
	}

	completedJSON, err := json.Marshal(idsOrEmpty(cp.CompletedSceneIDs))
	if err != nil {
		return fmt.Errorf("marshal completed ids: %w", err)
	}
	failedJSON, err := json.Marshal(idsOrEmpty(cp.FailedSceneIDs))
	if err != nil {
		return fmt.Errorf("marshal failed ids: %w", err)
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO checkpoints (
            video_id, process_type, status, total_count, completed_count, failed_count,
            completed_scene_ids, failed_scene_ids, last_updated, can_resume
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (video_id) DO UPDATE SET
            process_type = excluded.process_type,
            status = excluded.status,
            total_count = excluded.total_count,
            completed_count = excluded.completed_count,
            failed_count = excluded.failed_count,
            completed_scene_ids = excluded.completed_scene_ids,
            failed_scene_ids = excluded.failed_scene_ids,
            last_updated = excluded.last_updated,
            can_resume = excluded.can_resume`,
		cp.VideoID,
		cp.ProcessType,
		string(cp.Status),
		cp.TotalCount,
		cp.CompletedCount,
		cp.FailedCount,
		string(completedJSON),
		string(failedJSON),
		cp.LastUpdated.Format(time.RFC3339Nano),
		boolToInt(cp.CanResume),
	); err != nil {
		return fmt.Errorf("record checkpoint: %w", err)
	}
	return nil
}

// CheckpointForVideo reads the persisted checkpoint row. Returns ErrNotFound
// when the video has never recorded one.
func (s *Store) CheckpointForVideo(ctx context.Context, videoID int64) (*Checkpoint, error) {
	ctx = ensureContext(ctx)

	var (
		cp            Checkpoint
		statusStr     string
		completedJSON string
		failedJSON    string
		updatedRaw    string
		canResume     int
	)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT video_id, process_type, status, total_count, completed_count, failed_count,
                completed_scene_ids, failed_scene_ids, last_updated, can_resume
         FROM checkpoints WHERE video_id = ?`,
		videoID,
	)
	err := row.Scan(
		&cp.VideoID,
		&cp.ProcessType,
		&statusStr,
		&cp.TotalCount,
		&cp.CompletedCount,
		&cp.FailedCount,
		&completedJSON,
		&failedJSON,
		&updatedRaw,
		&canResume,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select checkpoint: %w", err)
	}

	cp.Status = CheckpointStatus(statusStr)
	cp.LastUpdated = parseTimestamp(updatedRaw)
	cp.CanResume = canResume != 0
	if err := json.Unmarshal([]byte(completedJSON), &cp.CompletedSceneIDs); err != nil {
		return nil, fmt.Errorf("decode completed ids: %w", err)
	}
	if err := json.Unmarshal([]byte(failedJSON), &cp.FailedSceneIDs); err != nil {
		return nil, fmt.Errorf("decode failed ids: %w", err)
	}
	return &cp, nil
}

func idsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
