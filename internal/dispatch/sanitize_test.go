package dispatch_test

import (
	"strings"
	"testing"

	"storyreel/internal/dispatch"
)

func TestSanitizePromptStripsNames(t *testing.T) {
	got := dispatch.SanitizePrompt("A portrait of Emma Watson reading in a library")
	if strings.Contains(got, "Emma") || strings.Contains(got, "Watson") {
		t.Fatalf("name survived sanitization: %q", got)
	}
	if !strings.Contains(got, "a person") {
		t.Fatalf("expected generic replacement, got %q", got)
	}
}

func TestSanitizePromptKeepsSingleCapitalizedWords(t *testing.T) {
	got := dispatch.SanitizePrompt("Paris at dawn, wide shot")
	if !strings.Contains(got, "Paris") {
		t.Fatalf("single capitalized word should survive: %q", got)
	}
}

func TestSanitizePromptReplacesTriggerTerms(t *testing.T) {
	got := dispatch.SanitizePrompt("a famous celebrity walking a red carpet")
	if strings.Contains(strings.ToLower(got), "celebrity") {
		t.Fatalf("trigger term survived: %q", got)
	}
}

func TestSanitizePromptNormalizesUnicode(t *testing.T) {
	// Fullwidth letters normalize to ASCII before matching.
	got := dispatch.SanitizePrompt("ｐｈｏｔｏ ｏｆ a winter lake")
	if strings.ContainsRune(got, 'ｐ') {
		t.Fatalf("expected NFKC normalization, got %q", got)
	}
}
