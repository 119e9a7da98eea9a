package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"storyreel/internal/dispatch"
	"storyreel/internal/logging"
	"storyreel/internal/scenes"
	"storyreel/internal/segmentation"
	"storyreel/internal/stage"
	"storyreel/internal/subtitles"
)

// narrationStage synthesizes the scene's narration audio and aligns a
// subtitle track against the detected sentence boundaries. Opening scenes
// carry no narration and pass straight through.
type narrationStage struct {
	manager *Manager
	video   *scenes.Video
	logger  *slog.Logger
}

func (m *Manager) newNarrationStage(video *scenes.Video) *narrationStage {
	return &narrationStage{manager: m, video: video, logger: m.logger}
}

func (s *narrationStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *narrationStage) Prepare(_ context.Context, scene *scenes.Scene) error {
	if scene.Type == scenes.TypeOpening {
		return nil
	}
	if err := stage.RequireNarration(scene); err != nil {
		return err
	}
	return stage.RequireMedia(scene)
}

func (s *narrationStage) Execute(ctx context.Context, scene *scenes.Scene) error {
	if scene.Type == scenes.TypeOpening {
		return nil
	}

	dir, err := s.manager.sceneDir(scene.VideoID)
	if err != nil {
		return err
	}
	cfg := s.manager.cfg

	// Media-only regeneration keeps the previous narration artifacts.
	audioPath := scene.AudioURL
	if audioPath == "" {
		audioPath = filepath.Join(dir, fmt.Sprintf("narration-%03d.wav", scene.Ordering))
		req := dispatch.Request{
			Stage:         "narration",
			Operation:     "synthesize narration",
			PrimaryModel:  cfg.TTS.Model,
			FallbackModel: cfg.TTS.FallbackModel,
			Prompt:        scene.Narration,
		}
		call := func(ctx context.Context, model, _ string) error {
			return s.manager.svc.Speech.SynthesizeToFile(ctx, model, cfg.TTS.Voice, scene.Narration, audioPath)
		}
		if err := s.manager.svc.Dispatcher.Do(ctx, req, call); err != nil {
			return err
		}
		if tempo := cfg.TTS.Tempo; tempo > 0 && tempo != 1.0 {
			adjusted := filepath.Join(dir, fmt.Sprintf("narration-%03d-tempo.wav", scene.Ordering))
			audioPath = segmentation.AdjustTempo(ctx, s.logger, cfg.Tools.FFmpegBinary,
				audioPath, adjusted, tempo,
				time.Duration(cfg.Tools.TempoTimeout)*time.Second, cfg.Paths.StagingDir)
		}
		scene.AudioURL = audioPath
	}

	if scene.SubtitleURL == "" {
		sentences := subtitles.SplitSentences(scene.Narration)
		intervals := s.manager.svc.Bounds.DetectSentenceBoundaries(ctx, audioPath, len(sentences))
		total := 0.0
		if len(intervals) > 0 {
			total = intervals[len(intervals)-1].End
		}
		if total <= 0 {
			// Without a measured duration the cue timings would be invented.
			// The video still composes, just without this scene's captions.
			s.logger.Warn("narration duration unavailable, skipping subtitles",
				logging.Int("scene_ordering", scene.Ordering))
			return nil
		}
		cues := subtitles.BuildCues(sentences, intervals, total)
		subtitlePath := filepath.Join(dir, fmt.Sprintf("narration-%03d.srt", scene.Ordering))
		if err := subtitles.WriteFile(subtitlePath, cues); err != nil {
			return fmt.Errorf("write subtitle track: %w", err)
		}
		scene.SubtitleURL = subtitlePath
	}
	return nil
}

func (s *narrationStage) HealthCheck(ctx context.Context) stage.Health {
	cfg := s.manager.cfg
	if strings.TrimSpace(cfg.TTS.Model) == "" {
		return stage.Unhealthy("narration", "no speech model configured")
	}
	if !binaryAvailable(cfg.Tools.FFmpegBinary) {
		return stage.Unhealthy("narration", fmt.Sprintf("ffmpeg binary %q not found", cfg.Tools.FFmpegBinary))
	}
	if !binaryAvailable(cfg.Tools.FFprobeBinary) {
		return stage.Unhealthy("narration", fmt.Sprintf("ffprobe binary %q not found", cfg.Tools.FFprobeBinary))
	}
	return stage.Healthy("narration")
}
