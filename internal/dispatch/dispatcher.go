package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"storyreel/internal/logging"
	"storyreel/internal/ratelimit"
	"storyreel/internal/services"
)

// CallFunc performs one generation attempt against the given model with the
// given prompt. The dispatcher owns pacing, retries, and fallback; the
// callee only translates one request/response pair.
type CallFunc func(ctx context.Context, model, prompt string) error

// Request describes one dispatched generation call.
type Request struct {
	Stage         string
	Operation     string
	PrimaryModel  string
	FallbackModel string
	Prompt        string

	// MaxRetries bounds attempts per model, including the first.
	// Zero means the limiter profile's value.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Jitter         bool
}

// Dispatcher drives the retry/fallback state machine for generation calls.
type Dispatcher struct {
	limiters *ratelimit.Registry
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
	jitter   func(time.Duration) time.Duration
}

// Option customizes the dispatcher.
type Option func(*Dispatcher)

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(d *Dispatcher) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// New constructs a dispatcher sharing the process-wide limiter registry.
func New(limiters *ratelimit.Registry, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Dispatcher{
		limiters: limiters,
		logger:   logger,
		sleep:    sleepContext,
		jitter: func(base time.Duration) time.Duration {
			return base + time.Duration(rand.Int63n(int64(base)/4+1))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Do executes the request: primary model with bounded retries on transient
// failures, one prompt-sanitization pass on a content-policy rejection, then
// the fallback model. A terminal failure aggregates the error context from
// both models.
func (d *Dispatcher) Do(ctx context.Context, req Request, call CallFunc) error {
	primaryErr := d.attemptModel(ctx, req, req.PrimaryModel, req.Prompt, call)
	if primaryErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return primaryErr
	}

	prompt := req.Prompt
	if errors.Is(primaryErr, services.ErrContentPolicy) {
		sanitized := SanitizePrompt(prompt)
		if sanitized != prompt {
			d.logger.Info("retrying with sanitized prompt",
				logging.String(logging.FieldModel, req.PrimaryModel),
				logging.String("operation", req.Operation),
			)
			sanitizedErr := d.attemptModel(ctx, req, req.PrimaryModel, sanitized, call)
			if sanitizedErr == nil {
				return nil
			}
			primaryErr = fmt.Errorf("sanitized retry: %w (original: %w)", sanitizedErr, primaryErr)
			prompt = sanitized
		}
	}

	if req.FallbackModel == "" || req.FallbackModel == req.PrimaryModel {
		return services.Wrap(marker(primaryErr), req.Stage, req.Operation,
			fmt.Sprintf("model %s exhausted and no fallback configured", req.PrimaryModel), primaryErr)
	}

	d.logger.Warn("falling back to secondary model",
		logging.String(logging.FieldModel, req.FallbackModel),
		logging.String("operation", req.Operation),
		logging.Error(primaryErr),
	)
	fallbackErr := d.attemptModel(ctx, req, req.FallbackModel, prompt, call)
	if fallbackErr == nil {
		return nil
	}

	return services.Wrap(marker(fallbackErr), req.Stage, req.Operation,
		fmt.Sprintf("primary %s and fallback %s both failed", req.PrimaryModel, req.FallbackModel),
		errors.Join(primaryErr, fallbackErr))
}

func (d *Dispatcher) attemptModel(ctx context.Context, req Request, model, prompt string, call CallFunc) error {
	limiter := d.limiters.For(model)
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = limiter.Profile().MaxRetries
	}
	backoff := req.InitialBackoff
	if backoff <= 0 {
		backoff = limiter.Profile().InitialDelay
	}
	maxBackoff := req.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = limiter.Profile().MaxDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		err := call(ctx, model, prompt)
		if err == nil {
			limiter.RecordSuccess()
			return nil
		}
		lastErr = err

		switch {
		case services.Severe(err):
			limiter.RecordSevereError()
		default:
			limiter.RecordError()
		}

		if !services.Retryable(err) || attempt == maxRetries {
			break
		}

		delay := backoff
		if req.Jitter {
			delay = d.jitter(delay)
		}
		d.logger.Debug("generation attempt failed, backing off",
			logging.String(logging.FieldModel, model),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(err),
		)
		if err := d.sleep(ctx, delay); err != nil {
			return err
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}

func marker(err error) error {
	switch {
	case errors.Is(err, services.ErrContentPolicy):
		return services.ErrContentPolicy
	case errors.Is(err, services.ErrRateLimited):
		return services.ErrRateLimited
	case errors.Is(err, services.ErrOverloaded):
		return services.ErrOverloaded
	case errors.Is(err, services.ErrTimeout):
		return services.ErrTimeout
	default:
		return services.ErrTransient
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
