package scenes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const videoColumns = "id, prompt, title, output_format, status, final_file, error_message, created_at, updated_at"

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		video      Video
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&video.ID,
		&video.Prompt,
		&video.Title,
		&video.OutputFormat,
		&statusStr,
		&video.FinalFile,
		&video.ErrorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	video.Status = VideoStatus(statusStr)
	video.CreatedAt = parseTimestamp(createdRaw)
	video.UpdatedAt = parseTimestamp(updatedRaw)
	return &video, nil
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// NewVideo inserts a fresh video job derived from a user prompt.
func (s *Store) NewVideo(ctx context.Context, prompt, outputFormat string) (*Video, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO videos (prompt, output_format, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		prompt,
		outputFormat,
		VideoPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.VideoByID(ctx, id)
}

// VideoByID fetches one video row.
func (s *Store) VideoByID(ctx context.Context, id int64) (*Video, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// ListVideos returns all videos, newest first. When statuses are given only
// matching rows are returned.
func (s *Store) ListVideos(ctx context.Context, statuses ...VideoStatus) ([]*Video, error) {
	ctx = ensureContext(ctx)

	query := `SELECT ` + videoColumns + ` FROM videos`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + repeatPlaceholder(len(statuses)-1) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// UpdateVideo persists mutable video fields.
func (s *Store) UpdateVideo(ctx context.Context, video *Video) error {
	if video == nil {
		return fmt.Errorf("update video: nil video")
	}
	video.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE videos
         SET prompt = ?, title = ?, output_format = ?, status = ?, final_file = ?,
             error_message = ?, updated_at = ?
         WHERE id = ?`,
		video.Prompt,
		video.Title,
		video.OutputFormat,
		string(video.Status),
		video.FinalFile,
		video.ErrorMessage,
		video.UpdatedAt.Format(time.RFC3339Nano),
		video.ID,
	); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// NextPendingVideo claims the oldest pending video by flipping it to
// processing, or returns nil when the queue is drained.
func (s *Store) NextPendingVideo(ctx context.Context) (*Video, error) {
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
			`SELECT id FROM videos WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT 1`,
			VideoPending,
		)
		if err := row.Scan(&claimedID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE videos SET status = ?, updated_at = ? WHERE id = ?`,
			VideoProcessing,
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
		return nil, fmt.Errorf("claim pending video: %w", err)
	}
	return s.VideoByID(ctx, claimedID)
}

func repeatPlaceholder(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		out = append(out, ", ?"...)
	}
	return string(out)
}
