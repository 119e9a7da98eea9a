package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeneration()
	c.normalizeTools()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGeneration() {
	c.Script.APIKey = strings.TrimSpace(c.Script.APIKey)
	c.Script.BaseURL = strings.TrimSpace(c.Script.BaseURL)
	c.Script.Model = strings.TrimSpace(c.Script.Model)
	if c.Script.TimeoutSeconds <= 0 {
		c.Script.TimeoutSeconds = defaultScriptTimeoutSeconds
	}

	c.Images.APIKey = strings.TrimSpace(c.Images.APIKey)
	c.Images.Model = strings.TrimSpace(c.Images.Model)
	c.Images.FallbackModel = strings.TrimSpace(c.Images.FallbackModel)
	if c.Images.TimeoutSeconds <= 0 {
		c.Images.TimeoutSeconds = defaultImagesTimeoutSeconds
	}

	c.Video.APIKey = strings.TrimSpace(c.Video.APIKey)
	c.Video.Model = strings.TrimSpace(c.Video.Model)
	if c.Video.PollIntervalSeconds <= 0 {
		c.Video.PollIntervalSeconds = defaultVideoPollIntervalSeconds
	}
	if c.Video.PollTimeoutSeconds <= 0 {
		c.Video.PollTimeoutSeconds = defaultVideoPollTimeoutSeconds
	}

	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
	c.TTS.FallbackModel = strings.TrimSpace(c.TTS.FallbackModel)
	c.TTS.Voice = strings.ToLower(strings.TrimSpace(c.TTS.Voice))
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}

	// Per-service keys fall back to the script key so a single key setup works.
	if c.Images.APIKey == "" {
		c.Images.APIKey = c.Script.APIKey
	}
	if c.Video.APIKey == "" {
		c.Video.APIKey = c.Script.APIKey
	}
	if c.TTS.APIKey == "" {
		c.TTS.APIKey = c.Script.APIKey
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFmpegBinary) == "" {
		c.Tools.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(c.Tools.FFprobeBinary) == "" {
		c.Tools.FFprobeBinary = "ffprobe"
	}
	setPositive := func(value *int, fallback int) {
		if *value <= 0 {
			*value = fallback
		}
	}
	setPositive(&c.Tools.ProbeTimeout, defaultProbeTimeout)
	setPositive(&c.Tools.SilenceTimeout, defaultSilenceTimeout)
	setPositive(&c.Tools.SlideshowTimeout, defaultSlideshowTimeout)
	setPositive(&c.Tools.NormalizeTimeout, defaultNormalizeTimeout)
	setPositive(&c.Tools.MuxTimeout, defaultMuxTimeout)
	setPositive(&c.Tools.SubtitleTimeout, defaultSubtitleTimeout)
	setPositive(&c.Tools.ConcatTimeout, defaultConcatTimeout)
	setPositive(&c.Tools.TempoTimeout, defaultTempoTimeout)
	setPositive(&c.Tools.CleanupDelaySecs, defaultCleanupDelaySecs)
	setPositive(&c.Tools.CleanupWorkerCount, defaultCleanupWorkerCount)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.SceneWorkers <= 0 {
		c.Workflow.SceneWorkers = defaultSceneWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
