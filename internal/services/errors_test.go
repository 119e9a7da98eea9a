package services_test

import (
	"errors"
	"testing"

	"storyreel/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrRateLimited, "media", "generate image", "quota exceeded", nil)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate-limited marker, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("rate-limited errors must be retryable")
	}
	if !services.Severe(err) {
		t.Fatal("rate-limited errors must be severe")
	}
}

func TestContentPolicyErrorMatchesSentinel(t *testing.T) {
	var cpe *services.ContentPolicyError
	err := services.Wrap(services.ErrTransient, "media", "generate", "", &services.ContentPolicyError{
		FinishReason: "SAFETY",
		Categories:   []string{"HARM_CATEGORY_CELEBRITY"},
		Prompt:       "portrait of a famous actor",
	})
	if !errors.Is(err, services.ErrContentPolicy) {
		t.Fatal("expected wrapped content policy error to match sentinel")
	}
	if !errors.As(err, &cpe) {
		t.Fatal("expected to extract ContentPolicyError payload")
	}
	if cpe.FinishReason != "SAFETY" {
		t.Fatalf("unexpected finish reason %q", cpe.FinishReason)
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{services.ErrRateLimited, true},
		{services.ErrOverloaded, true},
		{services.ErrTimeout, true},
		{services.ErrMalformedResponse, true},
		{services.ErrContentPolicy, false},
		{services.ErrValidation, false},
		{services.ErrExternalTool, false},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.retryable {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.retryable)
		}
	}
}

func TestDetailsStripsMarkerPrefix(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "compose", "slideshow", "exit status 1", nil)
	details := services.Details(err)
	if details.Message != "compose: slideshow: exit status 1" {
		t.Fatalf("unexpected details: %q", details.Message)
	}
}
