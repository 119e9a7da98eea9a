package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool      = errors.New("external tool error")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrTimeout           = errors.New("timeout")
	ErrTransient         = errors.New("transient failure")
	ErrRateLimited       = errors.New("rate limited")
	ErrOverloaded        = errors.New("upstream overloaded")
	ErrContentPolicy     = errors.New("content policy violation")
	ErrMalformedResponse = errors.New("malformed response")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error should be retried with backoff before
// any fallback is considered. Rate limiting, overload, and timeouts qualify;
// a malformed response counts as a single failed attempt on the same path.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrOverloaded) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrTransient)
}

// Severe reports whether an error reflects upstream pressure (429/503) that
// the adaptive rate limiter should react to more steeply.
func Severe(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrOverloaded)
}

// ContentPolicyError carries the structured safety-filter payload returned by
// a generation API so callers can branch on it without string parsing.
type ContentPolicyError struct {
	FinishReason string
	Categories   []string
	Prompt       string
}

func (e *ContentPolicyError) Error() string {
	if len(e.Categories) == 0 {
		return fmt.Sprintf("content policy violation (finish_reason=%q)", e.FinishReason)
	}
	return fmt.Sprintf("content policy violation (finish_reason=%q, categories=%s)",
		e.FinishReason, strings.Join(e.Categories, ","))
}

// Is lets errors.Is match a ContentPolicyError against the sentinel marker.
func (e *ContentPolicyError) Is(target error) bool {
	return target == ErrContentPolicy
}

// Details flattens an error chain into a human-readable message with the
// sentinel marker prefixes stripped.
type ErrorDetails struct {
	Message string
}

// Details extracts presentation details from a wrapped stage error.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	message := err.Error()
	for _, marker := range []error{
		ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound,
		ErrTimeout, ErrTransient, ErrRateLimited, ErrOverloaded,
		ErrContentPolicy, ErrMalformedResponse,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(message, prefix) {
			message = strings.TrimPrefix(message, prefix)
			break
		}
	}
	return ErrorDetails{Message: strings.TrimSpace(message)}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
