package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"storyreel/internal/compose"
	"storyreel/internal/config"
	"storyreel/internal/dispatch"
	"storyreel/internal/logging"
	"storyreel/internal/notifications"
	"storyreel/internal/ratelimit"
	"storyreel/internal/scenes"
	"storyreel/internal/segmentation"
	"storyreel/internal/services/imagegen"
	"storyreel/internal/services/llm"
	"storyreel/internal/services/script"
	"storyreel/internal/services/tts"
	"storyreel/internal/services/videogen"
	"storyreel/internal/storage"
)

// ScriptService expands a topic into a scripted scene list and refines prompts.
type ScriptService interface {
	Generate(ctx context.Context, model, topic string) (*script.Script, error)
	Refine(ctx context.Context, model, narration, previousPrompt, feedback string) (string, error)
}

// MediaGenerator produces a still image or video clip file from a prompt.
type MediaGenerator interface {
	GenerateToFile(ctx context.Context, model, prompt, size, path string) error
}

// SpeechSynthesizer renders narration text into an audio file.
type SpeechSynthesizer interface {
	SynthesizeToFile(ctx context.Context, model, voice, text, path string) error
}

// BoundarySource derives sentence intervals from a narration recording.
type BoundarySource interface {
	DetectSentenceBoundaries(ctx context.Context, audioPath string, sentenceCount int) []segmentation.Interval
}

// Composer assembles a final video from per-scene artifacts.
type Composer interface {
	Compose(ctx context.Context, job *compose.Job, in compose.Inputs) (*compose.Result, error)
}

// Services bundles the generation backends the manager drives. Tests inject
// stubs here; production wiring is built by NewManager.
type Services struct {
	Script     ScriptService
	Images     MediaGenerator
	Clips      MediaGenerator
	Speech     SpeechSynthesizer
	Bounds     BoundarySource
	Composer   Composer
	Dispatcher *dispatch.Dispatcher
}

// Manager coordinates video processing using the configured backends.
type Manager struct {
	cfg      *config.Config
	store    *scenes.Store
	logger   *slog.Logger
	notifier notifications.Service
	svc      Services

	pollInterval time.Duration
	errorRetry   time.Duration

	cleanup *compose.Scheduler

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error

	queueActive    bool
	queueProcessed int
	queueFailed    int
}

// NewManager constructs a workflow manager with production backends built
// from configuration.
func NewManager(ctx context.Context, cfg *config.Config, store *scenes.Store, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	// Retries for script calls belong to the dispatcher, which also owns
	// rate limiting and model fallback. The client keeps a single attempt.
	chat := llm.NewClient(llm.Config{
		APIKey:         cfg.Script.APIKey,
		BaseURL:        cfg.Script.BaseURL,
		Model:          cfg.Script.Model,
		TimeoutSeconds: cfg.Script.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	blobs, err := storage.NewClient(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	cleanup := compose.NewScheduler(
		time.Duration(cfg.Tools.CleanupDelaySecs)*time.Second,
		cfg.Tools.CleanupWorkerCount,
		logger,
	)

	svc := Services{
		Script: script.NewService(chat),
		Images: imagegen.NewClient(cfg.Images.APIKey, imagegen.WithBaseURL(cfg.Images.BaseURL)),
		Clips: videogen.NewClient(cfg.Video.APIKey,
			videogen.WithBaseURL(cfg.Video.BaseURL),
			videogen.WithPolling(
				time.Duration(cfg.Video.PollIntervalSeconds)*time.Second,
				time.Duration(cfg.Video.PollTimeoutSeconds)*time.Second,
			),
		),
		Speech: tts.NewClient(cfg.TTS.APIKey,
			tts.WithBaseURL(cfg.TTS.BaseURL),
			tts.WithVoice(cfg.TTS.Voice),
		),
		Bounds: &segmentation.Engine{
			FFmpegBinary:  cfg.Tools.FFmpegBinary,
			FFprobeBinary: cfg.Tools.FFprobeBinary,
			Timeout:       time.Duration(cfg.Tools.SilenceTimeout) * time.Second,
			BaseDir:       cfg.Paths.StagingDir,
			Logger:        logger,
		},
		Composer:   compose.NewPipeline(cfg.Tools, cfg.Paths.OutputDir, logger, blobs, cleanup),
		Dispatcher: dispatch.New(ratelimit.NewRegistry(cfg.RateLimits), logger),
	}

	m := NewManagerWithServices(cfg, store, logger, notifications.NewService(cfg), svc)
	m.cleanup = cleanup
	return m, nil
}

// NewManagerWithServices constructs a workflow manager around injected
// backends (used in tests).
func NewManagerWithServices(cfg *config.Config, store *scenes.Store, logger *slog.Logger, notifier notifications.Service, svc Services) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if svc.Dispatcher == nil {
		svc.Dispatcher = dispatch.New(ratelimit.NewRegistry(cfg.RateLimits), logger)
	}
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	errorRetry := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if errorRetry <= 0 {
		errorRetry = pollInterval
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		svc:          svc,
		pollInterval: pollInterval,
		errorRetry:   errorRetry,
	}
}

// Start begins background queue processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.runLoop(runCtx)
	}()
	return nil
}

// Stop terminates background processing and waits for in-flight work.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	if m.cleanup != nil {
		m.cleanup.Close()
	}
}

// LastError reports the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) runLoop(ctx context.Context) {
	logger := logging.WithContext(ctx, m.logger)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		video, err := m.store.NextPendingVideo(ctx)
		if err != nil {
			m.setLastError(err)
			logger.Error("failed to fetch next pending video",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
			)
			if !m.sleep(ctx, m.errorRetry) {
				return
			}
			continue
		}
		if video == nil {
			m.onQueueDrained(ctx)
			if !m.sleep(ctx, m.pollInterval) {
				return
			}
			continue
		}

		m.noteQueueActive()
		if err := m.processVideo(ctx, video); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
		}
	}
}

// sleep waits for the given duration, returning false when the context is
// cancelled first.
func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (m *Manager) noteQueueActive() {
	m.mu.Lock()
	m.queueActive = true
	m.mu.Unlock()
}

func (m *Manager) noteVideoOutcome(failed bool) {
	m.mu.Lock()
	m.queueProcessed++
	if failed {
		m.queueFailed++
	}
	m.mu.Unlock()
}

func (m *Manager) onQueueDrained(ctx context.Context) {
	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	processed := m.queueProcessed
	failed := m.queueFailed
	m.queueActive = false
	m.queueProcessed = 0
	m.queueFailed = 0
	m.mu.Unlock()

	if err := m.notifier.Publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": processed,
		"failed":    failed,
	}); err != nil {
		m.logger.Debug("queue completion notification failed", logging.Error(err))
	}
}
