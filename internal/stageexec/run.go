package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"storyreel/internal/logging"
	"storyreel/internal/notifications"
	"storyreel/internal/scenes"
	"storyreel/internal/services"
	"storyreel/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *scenes.Scene) error
	Execute(context.Context, *scenes.Scene) error
}

// Options controls stage execution and scene persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Store      *scenes.Store
	Notifier   notifications.Service
	Handler    Handler
	StageName  string
	Processing scenes.Status
	Done       scenes.Status
	Scene      *scenes.Scene
}

// Run executes a stage and applies the scene transition semantics shared by
// every per-scene pipeline step: move to the processing status, run Prepare
// and Execute with persistence between them, then advance to the done status
// unless the handler already moved the scene itself.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("scene store is required")
	}
	if opts.Scene == nil {
		return fmt.Errorf("scene is required")
	}

	stageCtx := logging.WithStage(ctx, opts.StageName)
	stageCtx = services.WithVideoID(stageCtx, opts.Scene.VideoID)
	stageCtx = services.WithSceneID(stageCtx, opts.Scene.ID)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.Int("ordering", opts.Scene.Ordering),
		logging.String("scene_type", string(opts.Scene.Type)),
	)

	setSceneProcessingState(opts.Scene, opts.Processing)
	if err := opts.Store.UpdateScene(stageCtx, opts.Scene); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Scene); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Notifier, opts.StageName, opts.Scene, err)
	}
	if err := opts.Store.UpdateScene(stageCtx, opts.Scene); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Scene); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Notifier, opts.StageName, opts.Scene, err)
	}

	if opts.Scene.Status == opts.Processing || opts.Scene.Status == "" {
		opts.Scene.Status = opts.Done
	}
	if err := opts.Store.UpdateScene(stageCtx, opts.Scene); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Scene.Status)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store *scenes.Store, notifier notifications.Service, stageName string, scene *scenes.Scene, stageErr error) error {
	message := "stage failed"
	if stageErr != nil {
		details := services.Details(stageErr)
		message = strings.TrimSpace(details.Message)
		if message == "" {
			message = strings.TrimSpace(stageErr.Error())
		}
	}
	scene.SetFailed(message)

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(scenes.StatusFailed)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Error(stageErr),
	)
	if err := store.UpdateScene(ctx, scene); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	if notifier != nil && stageErr != nil {
		contextLabel := fmt.Sprintf("%s (scene #%d)", stageName, scene.ID)
		if err := notifier.Publish(ctx, notifications.EventError, notifications.Payload{
			"error":   stageErr,
			"context": contextLabel,
		}); err != nil {
			logger.Debug("stage error notification failed", logging.Error(err))
		}
	}

	return stageErr
}

func setSceneProcessingState(scene *scenes.Scene, processing scenes.Status) {
	if processing != "" {
		scene.Status = processing
	}
	scene.ErrorMessage = ""
}
