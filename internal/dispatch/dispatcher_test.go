package dispatch_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/dispatch"
	"storyreel/internal/logging"
	"storyreel/internal/ratelimit"
	"storyreel/internal/services"
)

func newDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	registry := ratelimit.NewRegistry(map[string]config.RateLimit{
		"primary":  {InitialDelayMillis: 1, MaxDelayMillis: 5},
		"fallback": {InitialDelayMillis: 1, MaxDelayMillis: 5},
	})
	return dispatch.New(registry, logging.NewNop(), dispatch.WithSleeper(
		func(ctx context.Context, d time.Duration) error { return nil },
	))
}

func TestTransientErrorsRetryWithoutFallback(t *testing.T) {
	d := newDispatcher(t)

	attempts := 0
	err := d.Do(context.Background(), dispatch.Request{
		Stage:          "media",
		Operation:      "tts",
		PrimaryModel:   "primary",
		FallbackModel:  "fallback",
		Prompt:         "hello world",
		MaxRetries:     5,
		InitialBackoff: time.Millisecond,
	}, func(ctx context.Context, model, prompt string) error {
		if model != "primary" {
			t.Fatalf("fallback invoked for transient failure path: %s", model)
		}
		attempts++
		if attempts <= 2 {
			return services.Wrap(services.ErrOverloaded, "tts", "synthesize", "http 503", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetriesExhaustedFallsBack(t *testing.T) {
	d := newDispatcher(t)

	var models []string
	err := d.Do(context.Background(), dispatch.Request{
		Stage:          "media",
		Operation:      "image",
		PrimaryModel:   "primary",
		FallbackModel:  "fallback",
		Prompt:         "a quiet forest",
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}, func(ctx context.Context, model, prompt string) error {
		models = append(models, model)
		if model == "primary" {
			return services.Wrap(services.ErrRateLimited, "image", "generate", "http 429", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected fallback success: %v", err)
	}
	want := []string{"primary", "primary", "fallback"}
	if strings.Join(models, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected model sequence %v", models)
	}
}

func TestContentPolicyTriggersSanitizedRetryThenFallback(t *testing.T) {
	d := newDispatcher(t)

	var prompts []string
	var models []string
	err := d.Do(context.Background(), dispatch.Request{
		Stage:         "media",
		Operation:     "image",
		PrimaryModel:  "primary",
		FallbackModel: "fallback",
		Prompt:        "portrait of Taylor Swift on stage",
		MaxRetries:    3,
	}, func(ctx context.Context, model, prompt string) error {
		models = append(models, model)
		prompts = append(prompts, prompt)
		if model == "primary" {
			return &services.ContentPolicyError{FinishReason: "SAFETY", Prompt: prompt}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected fallback success: %v", err)
	}
	// Primary original, primary sanitized, then fallback with sanitized prompt.
	if len(models) != 3 || models[0] != "primary" || models[1] != "primary" || models[2] != "fallback" {
		t.Fatalf("unexpected model sequence %v", models)
	}
	if strings.Contains(prompts[1], "Taylor Swift") {
		t.Fatalf("sanitized retry still contains the name: %q", prompts[1])
	}
	if strings.Contains(prompts[2], "Taylor Swift") {
		t.Fatalf("fallback should reuse sanitized prompt: %q", prompts[2])
	}
}

func TestTerminalFailureAggregatesBothModels(t *testing.T) {
	d := newDispatcher(t)

	err := d.Do(context.Background(), dispatch.Request{
		Stage:         "media",
		Operation:     "image",
		PrimaryModel:  "primary",
		FallbackModel: "fallback",
		Prompt:        "anything",
		MaxRetries:    1,
	}, func(ctx context.Context, model, prompt string) error {
		return services.Wrap(services.ErrOverloaded, "image", "generate", "http 503 from "+model, nil)
	})
	if err == nil {
		t.Fatal("expected terminal failure")
	}
	message := err.Error()
	if !strings.Contains(message, "primary") || !strings.Contains(message, "fallback") {
		t.Fatalf("terminal error missing model context: %s", message)
	}
}

func TestNonRetryableSkipsBackoffLoop(t *testing.T) {
	d := newDispatcher(t)

	attempts := 0
	err := d.Do(context.Background(), dispatch.Request{
		Stage:        "script",
		Operation:    "scenario",
		PrimaryModel: "primary",
		Prompt:       "write a story",
		MaxRetries:   5,
	}, func(ctx context.Context, model, prompt string) error {
		attempts++
		return services.Wrap(services.ErrValidation, "script", "scenario", "bad config", nil)
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if attempts != 1 {
		t.Fatalf("non-retryable error should not retry, got %d attempts", attempts)
	}
}

func TestMalformedResponseCountsAsAttempt(t *testing.T) {
	d := newDispatcher(t)

	attempts := 0
	err := d.Do(context.Background(), dispatch.Request{
		Stage:          "media",
		Operation:      "image",
		PrimaryModel:   "primary",
		Prompt:         "a red ball",
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
	}, func(ctx context.Context, model, prompt string) error {
		attempts++
		if attempts < 3 {
			return services.Wrap(services.ErrMalformedResponse, "image", "generate", "missing media field", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery from malformed responses: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestCancelledContextStopsDispatch(t *testing.T) {
	d := newDispatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Do(ctx, dispatch.Request{
		Stage:        "media",
		Operation:    "image",
		PrimaryModel: "primary",
		Prompt:       "anything",
	}, func(ctx context.Context, model, prompt string) error {
		return services.ErrOverloaded
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
