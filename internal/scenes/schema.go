package scenes

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS videos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    prompt TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    output_format TEXT NOT NULL DEFAULT 'landscape',
    status TEXT NOT NULL DEFAULT 'pending',
    final_file TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scenes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id INTEGER NOT NULL REFERENCES videos(id),
    ordering INTEGER NOT NULL,
    scene_type TEXT NOT NULL,
    narration TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL DEFAULT '',
    media_url TEXT NOT NULL DEFAULT '',
    audio_url TEXT NOT NULL DEFAULT '',
    subtitle_url TEXT NOT NULL DEFAULT '',
    composed_url TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    retry_count INTEGER NOT NULL DEFAULT 0,
    user_feedback TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (video_id, ordering)
);

CREATE INDEX IF NOT EXISTS idx_scenes_video ON scenes(video_id, ordering);
CREATE INDEX IF NOT EXISTS idx_scenes_status ON scenes(status);

CREATE TABLE IF NOT EXISTS checkpoints (
    video_id INTEGER PRIMARY KEY REFERENCES videos(id),
    process_type TEXT NOT NULL DEFAULT 'video_generation',
    status TEXT NOT NULL,
    total_count INTEGER NOT NULL,
    completed_count INTEGER NOT NULL,
    failed_count INTEGER NOT NULL,
    completed_scene_ids TEXT NOT NULL,
    failed_scene_ids TEXT NOT NULL,
    last_updated TEXT NOT NULL,
    can_resume INTEGER NOT NULL
);
`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
