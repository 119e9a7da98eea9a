package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"storyreel/internal/dispatch"
	"storyreel/internal/scenes"
	"storyreel/internal/services"
	"storyreel/internal/services/imagegen"
	"storyreel/internal/stage"
)

// mediaStage generates the visual asset for one scene: a still image for
// slides, a short generated clip for the opening.
type mediaStage struct {
	manager *Manager
	video   *scenes.Video
	logger  *slog.Logger
}

func (m *Manager) newMediaStage(video *scenes.Video) *mediaStage {
	return &mediaStage{manager: m, video: video, logger: m.logger}
}

func (s *mediaStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Prepare refines the generation prompt when the scene carries regeneration
// feedback, consuming the feedback so a later pass does not reapply it.
func (s *mediaStage) Prepare(ctx context.Context, scene *scenes.Scene) error {
	if strings.TrimSpace(scene.Prompt) == "" {
		return services.Wrap(services.ErrValidation, "media", "prepare",
			"Scene has no generation prompt; regenerate the script", nil)
	}
	feedback := strings.TrimSpace(scene.UserFeedback)
	if feedback == "" {
		return nil
	}

	var refined string
	req := dispatch.Request{
		Stage:        "script",
		Operation:    "refine prompt",
		PrimaryModel: s.manager.cfg.Script.Model,
		Prompt:       scene.Prompt,
	}
	err := s.manager.svc.Dispatcher.Do(ctx, req, func(ctx context.Context, model, prompt string) error {
		result, err := s.manager.svc.Script.Refine(ctx, model, scene.Narration, prompt, feedback)
		if err != nil {
			return err
		}
		refined = result
		return nil
	})
	if err != nil {
		return fmt.Errorf("refine prompt: %w", err)
	}
	scene.Prompt = refined
	scene.UserFeedback = ""
	return nil
}

func (s *mediaStage) Execute(ctx context.Context, scene *scenes.Scene) error {
	if scene.MediaURL != "" {
		return nil
	}

	dir, err := s.manager.sceneDir(scene.VideoID)
	if err != nil {
		return err
	}

	format := s.video.OutputFormat
	if fromCtx, ok := services.OutputFormatFromContext(ctx); ok && fromCtx != "" {
		format = fromCtx
	}

	var path string
	var req dispatch.Request
	var call dispatch.CallFunc
	cfg := s.manager.cfg

	switch scene.Type {
	case scenes.TypeOpening:
		path = filepath.Join(dir, fmt.Sprintf("opening-%03d.mp4", scene.Ordering))
		size := clipSizeForFormat(format)
		req = dispatch.Request{
			Stage:        "media",
			Operation:    "generate opening clip",
			PrimaryModel: cfg.Video.Model,
			Prompt:       scene.Prompt,
		}
		call = func(ctx context.Context, model, prompt string) error {
			return s.manager.svc.Clips.GenerateToFile(ctx, model, prompt, size, path)
		}
	default:
		path = filepath.Join(dir, fmt.Sprintf("slide-%03d.png", scene.Ordering))
		size := imagegen.SizeForFormat(format)
		req = dispatch.Request{
			Stage:         "media",
			Operation:     "generate slide image",
			PrimaryModel:  cfg.Images.Model,
			FallbackModel: cfg.Images.FallbackModel,
			Prompt:        scene.Prompt,
		}
		call = func(ctx context.Context, model, prompt string) error {
			return s.manager.svc.Images.GenerateToFile(ctx, model, prompt, size, path)
		}
	}

	if err := s.manager.svc.Dispatcher.Do(ctx, req, call); err != nil {
		return err
	}
	scene.MediaURL = path
	return nil
}

func (s *mediaStage) HealthCheck(ctx context.Context) stage.Health {
	cfg := s.manager.cfg
	if strings.TrimSpace(cfg.Images.Model) == "" {
		return stage.Unhealthy("media", "no image model configured")
	}
	if strings.TrimSpace(cfg.Images.APIKey) == "" && strings.TrimSpace(cfg.Script.APIKey) == "" {
		return stage.Unhealthy("media", "no API key configured")
	}
	return stage.Healthy("media")
}

func clipSizeForFormat(outputFormat string) string {
	if strings.EqualFold(strings.TrimSpace(outputFormat), "portrait") {
		return "720x1280"
	}
	return "1280x720"
}

// binaryAvailable reports whether an external tool resolves on PATH or as an
// absolute path.
func binaryAvailable(binary string) bool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return false
	}
	_, err := exec.LookPath(binary)
	return err == nil
}
