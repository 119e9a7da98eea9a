package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"storyreel/internal/compose"
	"storyreel/internal/dispatch"
	"storyreel/internal/logging"
	"storyreel/internal/media/ffprobe"
	"storyreel/internal/notifications"
	"storyreel/internal/scenes"
	"storyreel/internal/services"
	"storyreel/internal/services/script"
	"storyreel/internal/stageexec"
	"storyreel/internal/subtitles"
)

func (m *Manager) processVideo(ctx context.Context, video *scenes.Video) error {
	ctx = services.WithVideoID(ctx, video.ID)
	ctx = services.WithOutputFormat(ctx, video.OutputFormat)
	logger := logging.WithContext(ctx, m.logger)

	list, err := m.store.ScenesForVideo(ctx, video.ID)
	if err != nil {
		return fmt.Errorf("load scenes: %w", err)
	}
	if len(list) == 0 {
		if err := m.seedScenes(ctx, logger, video); err != nil {
			return m.failVideo(ctx, logger, video, err)
		}
	} else {
		logger.Info("resuming video from checkpoint",
			logging.String(logging.FieldEventType, "video_resume"),
			logging.Int("scene_count", len(list)),
		)
	}

	if err := m.notifier.Publish(ctx, notifications.EventVideoStarted, notifications.Payload{
		"title": videoLabel(video),
	}); err != nil {
		logger.Debug("video start notification failed", logging.Error(err))
	}

	workers := m.cfg.Workflow.SceneWorkers
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			m.sceneWorker(ctx, logger, video)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return context.Canceled
	}
	return m.finalizeVideo(ctx, logger, video)
}

func (m *Manager) seedScenes(ctx context.Context, logger *slog.Logger, video *scenes.Video) error {
	var generated *script.Script
	req := dispatch.Request{
		Stage:        "script",
		Operation:    "generate script",
		PrimaryModel: m.cfg.Script.Model,
		Prompt:       video.Prompt,
	}
	err := m.svc.Dispatcher.Do(ctx, req, func(ctx context.Context, model, prompt string) error {
		result, err := m.svc.Script.Generate(ctx, model, prompt)
		if err != nil {
			return err
		}
		generated = result
		return nil
	})
	if err != nil {
		return fmt.Errorf("generate script: %w", err)
	}

	if strings.TrimSpace(generated.OpeningPrompt) != "" {
		if _, err := m.store.AddScene(ctx, video.ID, 0, scenes.TypeOpening, "", generated.OpeningPrompt); err != nil {
			return fmt.Errorf("add opening scene: %w", err)
		}
	}
	for i, sc := range generated.Scenes {
		if _, err := m.store.AddScene(ctx, video.ID, i+1, scenes.TypeSlide, sc.Narration, sc.ImagePrompt); err != nil {
			return fmt.Errorf("add scene %d: %w", i+1, err)
		}
	}

	video.Title = generated.Title
	if err := m.store.UpdateVideo(ctx, video); err != nil {
		return fmt.Errorf("persist video title: %w", err)
	}

	logger.Info("script generated",
		logging.String(logging.FieldEventType, "script_generated"),
		logging.String("title", generated.Title),
		logging.Int("scene_count", len(generated.Scenes)),
	)
	return nil
}

func (m *Manager) sceneWorker(ctx context.Context, logger *slog.Logger, video *scenes.Video) {
	for {
		if ctx.Err() != nil {
			return
		}
		scene, err := m.store.ClaimNextScene(ctx, video.ID)
		if err != nil {
			logger.Error("failed to claim next scene", logging.Error(err))
			m.setLastError(err)
			return
		}
		if scene == nil {
			return
		}

		if err := m.processScene(ctx, video, scene); err != nil {
			if errors.Is(err, context.Canceled) {
				m.markInterrupted(scene)
				return
			}
			// Scene already persisted as failed; keep draining the queue.
			continue
		}
	}
}

// markInterrupted records a shutdown interruption so the scene becomes
// claimable again after a retry. The run context is already cancelled, so a
// short-lived background context persists the state.
func (m *Manager) markInterrupted(scene *scenes.Scene) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.MarkSceneFailed(ctx, scene.ID, "interrupted by shutdown"); err != nil {
		m.logger.Error("failed to mark interrupted scene", logging.Error(err))
	}
}

func (m *Manager) processScene(ctx context.Context, video *scenes.Video, scene *scenes.Scene) error {
	media := m.newMediaStage(video)
	if err := stageexec.Run(ctx, stageexec.Options{
		Logger:     m.logger,
		Store:      m.store,
		Notifier:   m.notifier,
		Handler:    media,
		StageName:  "media",
		Processing: scenes.StatusGenerating,
		Done:       scenes.StatusMediaReady,
		Scene:      scene,
	}); err != nil {
		m.notifySceneFailure(ctx, video, scene, err)
		return err
	}

	narration := m.newNarrationStage(video)
	if err := stageexec.Run(ctx, stageexec.Options{
		Logger:     m.logger,
		Store:      m.store,
		Notifier:   m.notifier,
		Handler:    narration,
		StageName:  "narration",
		Processing: scenes.StatusMediaReady,
		Done:       scenes.StatusTTSReady,
		Scene:      scene,
	}); err != nil {
		m.notifySceneFailure(ctx, video, scene, err)
		return err
	}

	scene.Status = scenes.StatusCompleted
	if err := m.store.UpdateScene(ctx, scene); err != nil {
		return fmt.Errorf("persist scene completion: %w", err)
	}
	return nil
}

func (m *Manager) notifySceneFailure(ctx context.Context, video *scenes.Video, scene *scenes.Scene, stageErr error) {
	if errors.Is(stageErr, context.Canceled) {
		return
	}
	if err := m.notifier.Publish(ctx, notifications.EventSceneFailed, notifications.Payload{
		"scene": fmt.Sprintf("%d", scene.Ordering),
		"video": videoLabel(video),
		"error": services.Details(stageErr).Message,
	}); err != nil {
		m.logger.Debug("scene failure notification failed", logging.Error(err))
	}
}

func (m *Manager) finalizeVideo(ctx context.Context, logger *slog.Logger, video *scenes.Video) error {
	checkpoint, err := m.store.DeriveCheckpoint(ctx, video.ID)
	if err != nil {
		return fmt.Errorf("derive checkpoint: %w", err)
	}
	if len(checkpoint.FailedSceneIDs) > 0 {
		message := fmt.Sprintf("%d of %d scenes failed", len(checkpoint.FailedSceneIDs), checkpoint.TotalCount)
		return m.failVideo(ctx, logger, video, errors.New(message))
	}

	result, err := m.composeVideo(ctx, video)
	if err != nil {
		return m.failVideo(ctx, logger, video, err)
	}

	video.Status = scenes.VideoCompleted
	video.FinalFile = result.LocalPath
	if result.RemoteURL != "" {
		video.FinalFile = result.RemoteURL
	}
	video.ErrorMessage = ""
	if err := m.store.UpdateVideo(ctx, video); err != nil {
		return fmt.Errorf("persist video completion: %w", err)
	}
	m.noteVideoOutcome(false)

	logger.Info("video completed",
		logging.String(logging.FieldEventType, "video_completed"),
		logging.String("final_file", video.FinalFile),
	)
	if err := m.notifier.Publish(ctx, notifications.EventVideoCompleted, notifications.Payload{
		"title":     videoLabel(video),
		"finalFile": video.FinalFile,
	}); err != nil {
		logger.Debug("video completion notification failed", logging.Error(err))
	}
	return nil
}

func (m *Manager) failVideo(ctx context.Context, logger *slog.Logger, video *scenes.Video, cause error) error {
	video.Status = scenes.VideoFailed
	video.ErrorMessage = strings.TrimSpace(cause.Error())
	if err := m.store.UpdateVideo(ctx, video); err != nil {
		logger.Error("failed to persist video failure", logging.Error(err))
	}
	m.noteVideoOutcome(true)

	logger.Error("video failed",
		logging.String(logging.FieldEventType, "video_failed"),
		logging.Error(cause),
	)
	if err := m.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
		"context": fmt.Sprintf("video #%d", video.ID),
		"error":   cause,
	}); err != nil {
		logger.Debug("video failure notification failed", logging.Error(err))
	}
	return cause
}

func (m *Manager) composeVideo(ctx context.Context, video *scenes.Video) (*compose.Result, error) {
	list, err := m.store.ScenesForVideo(ctx, video.ID)
	if err != nil {
		return nil, fmt.Errorf("load scenes for composition: %w", err)
	}

	in := compose.Inputs{
		OutputFormat: video.OutputFormat,
		Title:        video.Title,
	}
	var opening *scenes.Scene
	var slideScenes []*scenes.Scene
	for _, scene := range list {
		switch scene.Type {
		case scenes.TypeOpening:
			opening = scene
			in.OpeningPath = scene.MediaURL
		case scenes.TypeSlide:
			in.Slides = append(in.Slides, compose.Slide{
				ImagePath: scene.MediaURL,
				AudioPath: scene.AudioURL,
			})
			if scene.AudioURL != "" {
				in.AudioPaths = append(in.AudioPaths, scene.AudioURL)
			}
			slideScenes = append(slideScenes, scene)
		}
	}

	job, err := compose.NewJob(m.cfg.Paths.StagingDir, video.ID)
	if err != nil {
		return nil, err
	}

	if path, err := m.mergeSubtitles(ctx, job, opening, slideScenes); err != nil {
		m.logger.Warn("subtitle merge failed, composing without captions", logging.Error(err))
	} else if path != "" {
		in.SubtitlePath = path
	}

	return m.svc.Composer.Compose(ctx, job, in)
}

// mergeSubtitles stitches per-scene subtitle tracks into one video-wide SRT,
// offsetting each track by the accumulated duration of preceding narration.
// When an opening clip precedes the slides, every caption shifts past it to
// stay aligned with the delayed narration track.
func (m *Manager) mergeSubtitles(ctx context.Context, job *compose.Job, opening *scenes.Scene, list []*scenes.Scene) (string, error) {
	offset := 0.0
	if opening != nil && opening.MediaURL != "" {
		probe, err := ffprobe.Inspect(ctx, m.cfg.Tools.FFprobeBinary, opening.MediaURL,
			time.Duration(m.cfg.Tools.ProbeTimeout)*time.Second, m.cfg.Paths.StagingDir)
		if err != nil {
			return "", fmt.Errorf("probe opening duration: %w", err)
		}
		offset = probe.DurationSeconds()
	}

	var tracks [][]subtitles.Cue
	for _, scene := range list {
		if scene.SubtitleURL == "" || scene.AudioURL == "" {
			continue
		}
		cues, err := subtitles.ParseFile(scene.SubtitleURL)
		if err != nil {
			return "", err
		}
		tracks = append(tracks, subtitles.Shift(cues, offset))

		probe, err := ffprobe.Inspect(ctx, m.cfg.Tools.FFprobeBinary, scene.AudioURL,
			time.Duration(m.cfg.Tools.ProbeTimeout)*time.Second, m.cfg.Paths.StagingDir)
		if err != nil {
			return "", fmt.Errorf("probe narration duration: %w", err)
		}
		offset += probe.DurationSeconds()
	}
	if len(tracks) == 0 {
		return "", nil
	}

	merged := subtitles.Merge(tracks...)
	path := job.Path("captions.srt")
	if err := subtitles.WriteFile(path, merged); err != nil {
		return "", err
	}
	return path, nil
}

func videoLabel(video *scenes.Video) string {
	if title := strings.TrimSpace(video.Title); title != "" {
		return title
	}
	return fmt.Sprintf("video #%d", video.ID)
}

// sceneDir is the per-video staging directory for generated artifacts.
func (m *Manager) sceneDir(videoID int64) (string, error) {
	dir := filepath.Join(m.cfg.Paths.StagingDir, fmt.Sprintf("video-%d", videoID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scene directory: %w", err)
	}
	return dir, nil
}
