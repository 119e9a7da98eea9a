package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScript(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScript() error {
	if c.Script.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/storyreel/config.toml"
		}
		return fmt.Errorf("script.api_key is required. Set it in %s (create with 'storyreel config init')", defaultPath)
	}
	if c.Script.Model == "" {
		return errors.New("script.model must be set")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Images.Model == "" {
		return errors.New("images.model must be set")
	}
	if c.Video.Model == "" {
		return errors.New("video.model must be set")
	}
	if c.TTS.Model == "" {
		return errors.New("tts.model must be set")
	}
	if c.TTS.Voice == "" {
		return errors.New("tts.voice must be set")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Storage.Endpoint) == "" {
		return errors.New("storage.endpoint must be set when storage.enabled is true")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true")
	}
	if strings.TrimSpace(c.Storage.AccessKey) == "" || strings.TrimSpace(c.Storage.SecretKey) == "" {
		return errors.New("storage.access_key and storage.secret_key must be set when storage.enabled is true")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	for model, profile := range c.RateLimits {
		if profile.InitialDelayMillis < 0 || profile.MaxDelayMillis < 0 {
			return fmt.Errorf("rate_limits.%s: delays must be non-negative", model)
		}
		if profile.MaxDelayMillis > 0 && profile.InitialDelayMillis > profile.MaxDelayMillis {
			return fmt.Errorf("rate_limits.%s: initial_delay_ms exceeds max_delay_ms", model)
		}
		if profile.SuccessDecrease < 0 || profile.SuccessDecrease > 1 {
			return fmt.Errorf("rate_limits.%s: success_decrease_ratio must be between 0 and 1", model)
		}
		if profile.ErrorIncrease < 0 || profile.SevereErrorIncrease < 0 {
			return fmt.Errorf("rate_limits.%s: increase ratios must be non-negative", model)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
