package config

const (
	defaultStagingDir = "~/.local/share/storyreel/staging"
	defaultOutputDir  = "~/videos/storyreel"
	defaultLogDir     = "~/.local/share/storyreel/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultScriptBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultScriptModel          = "google/gemini-3-flash-preview"
	defaultScriptTimeoutSeconds = 60

	defaultImagesBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultImagesModel          = "imagen-3.0-generate-002"
	defaultImagesFallbackModel  = "imagen-3.0-fast-generate-001"
	defaultImagesTimeoutSeconds = 120

	defaultVideoBaseURL             = "https://generativelanguage.googleapis.com/v1beta"
	defaultVideoModel               = "veo-2.0-generate-001"
	defaultVideoPollIntervalSeconds = 10
	defaultVideoPollTimeoutSeconds  = 300

	defaultTTSBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultTTSModel          = "gemini-2.5-flash-preview-tts"
	defaultTTSFallbackModel  = "gemini-2.5-pro-preview-tts"
	defaultTTSVoice          = "korora"
	defaultTTSTempo          = 1.0
	defaultTTSTimeoutSeconds = 120

	defaultStoragePresignSeconds = 3600

	defaultProbeTimeout       = 30
	defaultSilenceTimeout     = 60
	defaultSlideshowTimeout   = 180
	defaultNormalizeTimeout   = 180
	defaultMuxTimeout         = 120
	defaultSubtitleTimeout    = 180
	defaultConcatTimeout      = 120
	defaultTempoTimeout       = 60
	defaultCleanupDelaySecs   = 30
	defaultCleanupWorkerCount = 2

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 30
	defaultSceneWorkers       = 3

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Script: Script{
			BaseURL:        defaultScriptBaseURL,
			Model:          defaultScriptModel,
			TimeoutSeconds: defaultScriptTimeoutSeconds,
		},
		Images: Images{
			BaseURL:        defaultImagesBaseURL,
			Model:          defaultImagesModel,
			FallbackModel:  defaultImagesFallbackModel,
			TimeoutSeconds: defaultImagesTimeoutSeconds,
		},
		Video: Video{
			BaseURL:             defaultVideoBaseURL,
			Model:               defaultVideoModel,
			PollIntervalSeconds: defaultVideoPollIntervalSeconds,
			PollTimeoutSeconds:  defaultVideoPollTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Model:          defaultTTSModel,
			FallbackModel:  defaultTTSFallbackModel,
			Voice:          defaultTTSVoice,
			Tempo:          defaultTTSTempo,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Storage: Storage{
			PresignSeconds: defaultStoragePresignSeconds,
		},
		Tools: Tools{
			FFmpegBinary:       "ffmpeg",
			FFprobeBinary:      "ffprobe",
			ProbeTimeout:       defaultProbeTimeout,
			SilenceTimeout:     defaultSilenceTimeout,
			SlideshowTimeout:   defaultSlideshowTimeout,
			NormalizeTimeout:   defaultNormalizeTimeout,
			MuxTimeout:         defaultMuxTimeout,
			SubtitleTimeout:    defaultSubtitleTimeout,
			ConcatTimeout:      defaultConcatTimeout,
			TempoTimeout:       defaultTempoTimeout,
			CleanupDelaySecs:   defaultCleanupDelaySecs,
			CleanupWorkerCount: defaultCleanupWorkerCount,
		},
		RateLimits: map[string]RateLimit{},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			SceneWorkers:       defaultSceneWorkers,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Scenes:         true,
			Videos:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
