package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error without api key")
	}
	_ = cfg
	_ = resolved
	_ = exists
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
output_dir = "` + filepath.Join(dir, "out") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[script]
api_key = "test-key"

[tts]
voice = " Korora "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.Script.APIKey != "test-key" {
		t.Fatalf("unexpected api key: %q", cfg.Script.APIKey)
	}
	if cfg.TTS.Voice != "korora" {
		t.Fatalf("expected normalized voice, got %q", cfg.TTS.Voice)
	}
	if cfg.Images.APIKey != "test-key" {
		t.Fatal("expected images api key to fall back to script key")
	}
	if cfg.Workflow.SceneWorkers <= 0 {
		t.Fatal("expected positive scene worker default")
	}
}

func TestValidateRejectsBadRateLimits(t *testing.T) {
	cfg := config.Default()
	cfg.Script.APIKey = "k"
	cfg.RateLimits = map[string]config.RateLimit{
		"imagen": {InitialDelayMillis: 5000, MaxDelayMillis: 1000},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for initial delay above max delay")
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Script.APIKey = "k"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, d := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir} {
		if _, err := os.Stat(d); err != nil {
			t.Fatalf("expected directory %s: %v", d, err)
		}
	}
}
