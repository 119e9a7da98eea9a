package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
}

// Script contains connection settings for the scenario/script LLM.
type Script struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Images contains settings for the image generation API.
type Images struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	FallbackModel  string `toml:"fallback_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Video contains settings for the opening-clip video generation API.
type Video struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	PollTimeoutSeconds  int    `toml:"poll_timeout_seconds"`
}

// TTS contains settings for narration speech synthesis.
type TTS struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	FallbackModel  string  `toml:"fallback_model"`
	Voice          string  `toml:"voice"`
	Tempo          float64 `toml:"tempo"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Storage contains settings for the S3-compatible artifact store.
type Storage struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	PresignSeconds int    `toml:"presign_seconds"`
}

// Tools contains external media tool settings and per-operation timeouts.
type Tools struct {
	FFmpegBinary       string `toml:"ffmpeg_binary"`
	FFprobeBinary      string `toml:"ffprobe_binary"`
	ProbeTimeout       int    `toml:"probe_timeout"`
	SilenceTimeout     int    `toml:"silence_timeout"`
	SlideshowTimeout   int    `toml:"slideshow_timeout"`
	NormalizeTimeout   int    `toml:"normalize_timeout"`
	MuxTimeout         int    `toml:"mux_timeout"`
	SubtitleTimeout    int    `toml:"subtitle_timeout"`
	ConcatTimeout      int    `toml:"concat_timeout"`
	TempoTimeout       int    `toml:"tempo_timeout"`
	CleanupDelaySecs   int    `toml:"cleanup_delay_seconds"`
	CleanupWorkerCount int    `toml:"cleanup_worker_count"`
}

// RateLimit overrides the adaptive pacing profile for one model name.
type RateLimit struct {
	MaxRetries          int     `toml:"max_retries"`
	InitialDelayMillis  int     `toml:"initial_delay_ms"`
	MaxDelayMillis      int     `toml:"max_delay_ms"`
	SuccessDecrease     float64 `toml:"success_decrease_ratio"`
	ErrorIncrease       float64 `toml:"error_increase_ratio"`
	SevereErrorIncrease float64 `toml:"severe_error_increase_ratio"`
	SuccessStreak       int     `toml:"success_streak_for_decrease"`
}

// Workflow contains daemon timing and concurrency settings.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	SceneWorkers       int `toml:"scene_workers"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Scenes         bool   `toml:"scenes"`
	Videos         bool   `toml:"videos"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Storyreel.
//
// Configuration sections by subsystem:
//   - Paths: staging, output, and log directories
//   - Script: scenario generation LLM connection
//   - Images / Video / TTS: generative media API connections
//   - Storage: S3-compatible artifact sink
//   - Tools: ffmpeg/ffprobe binaries and per-operation timeouts
//   - RateLimits: per-model adaptive pacing overrides
//   - Workflow: daemon polling intervals and worker counts
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths                `toml:"paths"`
	Script        Script               `toml:"script"`
	Images        Images               `toml:"images"`
	Video         Video                `toml:"video"`
	TTS           TTS                  `toml:"tts"`
	Storage       Storage              `toml:"storage"`
	Tools         Tools                `toml:"tools"`
	RateLimits    map[string]RateLimit `toml:"rate_limits"`
	Workflow      Workflow             `toml:"workflow"`
	Notifications Notifications        `toml:"notifications"`
	Logging       Logging              `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storyreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// OutputDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "storyreeld.lock")
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
