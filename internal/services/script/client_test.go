package script

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyreel/internal/services"
	"storyreel/internal/services/llm"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func TestGenerateParsesScript(t *testing.T) {
	body := `{"title":"How Tides Work","opening_prompt":"waves at dawn","scenes":[` +
		`{"narration":"The moon pulls the ocean.","image_prompt":"moon over sea"},` +
		`{"narration":"Tides rise twice a day.","image_prompt":"tide chart on beach"},` +
		`{"narration":"Coastlines shape the effect.","image_prompt":"rocky bay at low tide"}]}`
	server := chatServer(t, body)
	defer server.Close()

	svc := NewService(llm.NewClient(llm.Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}))
	script, err := svc.Generate(context.Background(), "demo", "how tides work")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if script.Title != "How Tides Work" {
		t.Fatalf("title = %q", script.Title)
	}
	if len(script.Scenes) != 3 {
		t.Fatalf("got %d scenes", len(script.Scenes))
	}
	if script.Scenes[0].Narration != "The moon pulls the ocean." {
		t.Fatalf("unexpected narration %q", script.Scenes[0].Narration)
	}
	if script.OpeningPrompt != "waves at dawn" {
		t.Fatalf("opening prompt = %q", script.OpeningPrompt)
	}
}

func TestGenerateRejectsEmptyTopic(t *testing.T) {
	svc := NewService(llm.NewClient(llm.Config{APIKey: "test", Model: "demo"}))
	if _, err := svc.Generate(context.Background(), "demo", "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateRejectsMissingScenes(t *testing.T) {
	server := chatServer(t, `{"title":"Empty","opening_prompt":"x","scenes":[]}`)
	defer server.Close()

	svc := NewService(llm.NewClient(llm.Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}))
	if _, err := svc.Generate(context.Background(), "demo", "topic"); !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGenerateRejectsBlankNarration(t *testing.T) {
	server := chatServer(t, `{"title":"Bad","scenes":[{"narration":"  ","image_prompt":"x"}]}`)
	defer server.Close()

	svc := NewService(llm.NewClient(llm.Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}))
	if _, err := svc.Generate(context.Background(), "demo", "topic"); !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestRefineWithFeedback(t *testing.T) {
	server := chatServer(t, `{"image_prompt":"warmer sunset palette over the bay"}`)
	defer server.Close()

	svc := NewService(llm.NewClient(llm.Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}))
	refined, err := svc.Refine(context.Background(), "demo", "The bay at dusk.", "bay at dusk", "make it warmer")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined != "warmer sunset palette over the bay" {
		t.Fatalf("refined = %q", refined)
	}
}

func TestRefineWithoutFeedbackKeepsPrompt(t *testing.T) {
	svc := NewService(nil)
	refined, err := svc.Refine(context.Background(), "demo", "narration", "original prompt", "")
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined != "original prompt" {
		t.Fatalf("refined = %q", refined)
	}
}
