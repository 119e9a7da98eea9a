package scenes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sceneColumns = "id, video_id, ordering, scene_type, narration, prompt, media_url, audio_url, subtitle_url, composed_url, status, retry_count, user_feedback, error_message, created_at, updated_at"

func scanScene(scanner interface{ Scan(dest ...any) error }) (*Scene, error) {
	var (
		scene      Scene
		typeStr    string
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&scene.ID,
		&scene.VideoID,
		&scene.Ordering,
		&typeStr,
		&scene.Narration,
		&scene.Prompt,
		&scene.MediaURL,
		&scene.AudioURL,
		&scene.SubtitleURL,
		&scene.ComposedURL,
		&statusStr,
		&scene.RetryCount,
		&scene.UserFeedback,
		&scene.ErrorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	scene.Type = SceneType(typeStr)
	scene.Status = Status(statusStr)
	scene.CreatedAt = parseTimestamp(createdRaw)
	scene.UpdatedAt = parseTimestamp(updatedRaw)
	return &scene, nil
}

// AddScene inserts a scene row for a video at the given ordering slot.
func (s *Store) AddScene(ctx context.Context, videoID int64, ordering int, sceneType SceneType, narration, prompt string) (*Scene, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO scenes (video_id, ordering, scene_type, narration, prompt, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		videoID,
		ordering,
		string(sceneType),
		narration,
		prompt,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert scene: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.SceneByID(ctx, id)
}

// SceneByID fetches one scene row.
func (s *Store) SceneByID(ctx context.Context, id int64) (*Scene, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE id = ?`, id)
	scene, err := scanScene(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select scene: %w", err)
	}
	return scene, nil
}

// ScenesForVideo returns a video's scenes in ordering sequence.
func (s *Store) ScenesForVideo(ctx context.Context, videoID int64) ([]*Scene, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sceneColumns+` FROM scenes WHERE video_id = ? ORDER BY ordering ASC`,
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	var scenes []*Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}
	return scenes, rows.Err()
}

// UpdateScene persists mutable scene fields, validating the status change
// against the lifecycle graph when the status moved.
func (s *Store) UpdateScene(ctx context.Context, scene *Scene) error {
	if scene == nil {
		return fmt.Errorf("update scene: nil scene")
	}

	current, err := s.SceneByID(ctx, scene.ID)
	if err != nil {
		return err
	}
	if current.Status != scene.Status && !CanTransition(current.Status, scene.Status) {
		return fmt.Errorf("%w: %s -> %s (scene %d)", ErrInvalidTransition, current.Status, scene.Status, scene.ID)
	}

	scene.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE scenes
         SET narration = ?, prompt = ?, media_url = ?, audio_url = ?, subtitle_url = ?,
             composed_url = ?, status = ?, retry_count = ?, user_feedback = ?,
             error_message = ?, updated_at = ?
         WHERE id = ?`,
		scene.Narration,
		scene.Prompt,
		scene.MediaURL,
		scene.AudioURL,
		scene.SubtitleURL,
		scene.ComposedURL,
		string(scene.Status),
		scene.RetryCount,
		scene.UserFeedback,
		scene.ErrorMessage,
		scene.UpdatedAt.Format(time.RFC3339Nano),
		scene.ID,
	); err != nil {
		return fmt.Errorf("update scene: %w", err)
	}

	return s.RecordCheckpoint(ctx, scene.VideoID)
}

// ClaimNextScene picks the lowest-ordered scene of a video that is waiting for
// work (pending or regenerating) and flips it to generating. Returns nil when
// no scene is waiting.
func (s *Store) ClaimNextScene(ctx context.Context, videoID int64) (*Scene, error) {
	ctx = ensureContext(ctx)

	var claimedID int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(
			ctx,
			`SELECT id FROM scenes WHERE video_id = ? AND status IN (?, ?) ORDER BY ordering ASC LIMIT 1`,
			videoID,
			StatusPending,
			StatusRegenerating,
		)
		if err := row.Scan(&claimedID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE scenes SET status = ?, updated_at = ? WHERE id = ?`,
			StatusGenerating,
			time.Now().UTC().Format(time.RFC3339Nano),
			claimedID,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim scene: %w", err)
	}
	if err := s.RecordCheckpoint(ctx, videoID); err != nil {
		return nil, err
	}
	return s.SceneByID(ctx, claimedID)
}

// MarkSceneFailed stamps the scene failed with the given message. Used on
// stage errors and on cooperative shutdown of in-flight work.
func (s *Store) MarkSceneFailed(ctx context.Context, id int64, message string) error {
	scene, err := s.SceneByID(ctx, id)
	if err != nil {
		return err
	}
	scene.SetFailed(message)
	return s.UpdateScene(ctx, scene)
}

// RetryFailedScenes flips every failed scene of a video back to regenerating,
// in ordering sequence, and returns how many were reset.
func (s *Store) RetryFailedScenes(ctx context.Context, videoID int64) (int, error) {
	list, err := s.ScenesForVideo(ctx, videoID)
	if err != nil {
		return 0, err
	}

	reset := 0
	for _, scene := range list {
		if scene.Status != StatusFailed {
			continue
		}
		scene.ResetForRegeneration(false)
		if err := s.UpdateScene(ctx, scene); err != nil {
			return reset, err
		}
		reset++
	}
	return reset, nil
}

// ResumeScenes requeues every unfinished scene of a video so a resumed run
// can pick them up. Scenes interrupted mid-stage fail first, then reset the
// same way retry resets them; narration artifacts survive when present.
func (s *Store) ResumeScenes(ctx context.Context, videoID int64) (int, error) {
	list, err := s.ScenesForVideo(ctx, videoID)
	if err != nil {
		return 0, err
	}

	reset := 0
	for _, scene := range list {
		switch scene.Status {
		case StatusCompleted, StatusPending, StatusRegenerating:
			continue
		case StatusGenerating, StatusMediaReady, StatusTTSReady:
			scene.SetFailed("interrupted before completion")
			if err := s.UpdateScene(ctx, scene); err != nil {
				return reset, err
			}
		}
		scene.ResetForRegeneration(scene.AudioURL != "")
		if err := s.UpdateScene(ctx, scene); err != nil {
			return reset, err
		}
		reset++
	}
	return reset, nil
}

// RegenerateScene resets one scene, completed or failed, for another pass.
// With mediaOnly the audio and subtitle artifacts survive and only the visual
// side is redone. Feedback, when non-empty, is stored for prompt refinement.
func (s *Store) RegenerateScene(ctx context.Context, id int64, feedback string, mediaOnly bool) (*Scene, error) {
	scene, err := s.SceneByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(scene.Status, StatusRegenerating) {
		return nil, fmt.Errorf("%w: %s -> %s (scene %d)", ErrInvalidTransition, scene.Status, StatusRegenerating, id)
	}
	scene.ResetForRegeneration(mediaOnly)
	if feedback != "" {
		scene.UserFeedback = feedback
	}
	if err := s.UpdateScene(ctx, scene); err != nil {
		return nil, err
	}
	return s.SceneByID(ctx, id)
}
