package proc_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storyreel/internal/proc"
	"storyreel/internal/services"
)

func TestRunCapturesOutput(t *testing.T) {
	result, err := proc.Run(context.Background(), proc.Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err 1>&2"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Output != "out\nerr\n" {
		t.Fatalf("unexpected combined output: %q", result.Output)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	_, err := proc.Run(context.Background(), proc.Command{
		Name: "sh",
		Args: []string{"-c", "echo broken; exit 3"},
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatal("exit failure must not classify as timeout")
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	start := time.Now()
	_, err := proc.Run(context.Background(), proc.Command{
		Name:    "sleep",
		Args:    []string{"30"},
		Timeout: 100 * time.Millisecond,
	})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("process not killed promptly, took %s", elapsed)
	}
}

func TestRunConfinesPathArguments(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "input.wav")
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if _, err := proc.Run(context.Background(), proc.Command{
		Name:        "cat",
		Args:        []string{inside},
		AllowedBase: base,
	}); err != nil {
		t.Fatalf("expected confined path to pass: %v", err)
	}

	_, err := proc.Run(context.Background(), proc.Command{
		Name:        "cat",
		Args:        []string{"/etc/passwd"},
		AllowedBase: base,
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for escaping path, got %v", err)
	}

	_, err = proc.Run(context.Background(), proc.Command{
		Name:        "cat",
		Args:        []string{filepath.Join(base, "..", "escape.txt")},
		AllowedBase: base,
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for dot-dot escape, got %v", err)
	}
}

func TestValidateOutput(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.mp4")
	if err := proc.ValidateOutput(missing); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected error for missing output, got %v", err)
	}

	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if err := proc.ValidateOutput(empty); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected error for empty output, got %v", err)
	}

	full := filepath.Join(dir, "full.mp4")
	if err := os.WriteFile(full, []byte("data"), 0o644); err != nil {
		t.Fatalf("write full: %v", err)
	}
	if err := proc.ValidateOutput(full); err != nil {
		t.Fatalf("expected valid output to pass: %v", err)
	}
}
