package script

import (
	"context"
	"fmt"
	"strings"

	"storyreel/internal/services"
	"storyreel/internal/services/llm"
)

const (
	minScenes = 1
	maxScenes = 12
)

// Scene is one narrated slide of a generated script.
type Scene struct {
	Narration   string `json:"narration"`
	ImagePrompt string `json:"image_prompt"`
}

// Script is the structured output of script generation.
type Script struct {
	Title         string  `json:"title"`
	OpeningPrompt string  `json:"opening_prompt"`
	Scenes        []Scene `json:"scenes"`
	Raw           string  `json:"-"`
}

// Service turns user topics into narrated slideshow scripts.
type Service struct {
	chat *llm.Client
}

// NewService constructs a script service over a chat client.
func NewService(chat *llm.Client) *Service {
	return &Service{chat: chat}
}

// Generate produces a script for the topic using the given model. The model
// is explicit so the dispatcher can steer between primary and fallback.
func (s *Service) Generate(ctx context.Context, model, topic string) (*Script, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("script generate: topic required: %w", services.ErrValidation)
	}
	if s == nil || s.chat == nil {
		return nil, fmt.Errorf("script generate: chat client required: %w", services.ErrConfiguration)
	}

	content, err := s.chat.CompleteJSONWithModel(ctx, model, GenerationPrompt, topic)
	if err != nil {
		return nil, err
	}

	var parsed Script
	if err := llm.DecodeModelJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("script generate: parse payload: %w", err)
	}
	parsed.Raw = content
	if err := validate(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Refine regenerates a single scene's image prompt, folding in user feedback
// from a regeneration request.
func (s *Service) Refine(ctx context.Context, model, narration, previousPrompt, feedback string) (string, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return previousPrompt, nil
	}
	if s == nil || s.chat == nil {
		return "", fmt.Errorf("script refine: chat client required: %w", services.ErrConfiguration)
	}

	user := fmt.Sprintf(
		"Narration: %s\nPrevious image prompt: %s\nViewer feedback: %s",
		strings.TrimSpace(narration),
		strings.TrimSpace(previousPrompt),
		feedback,
	)
	content, err := s.chat.CompleteJSONWithModel(ctx, model, RefinementPrompt, user)
	if err != nil {
		return "", err
	}

	var parsed struct {
		ImagePrompt string `json:"image_prompt"`
	}
	if err := llm.DecodeModelJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("script refine: parse payload: %w", err)
	}
	refined := strings.TrimSpace(parsed.ImagePrompt)
	if refined == "" {
		return "", fmt.Errorf("script refine: empty image prompt: %w", services.ErrMalformedResponse)
	}
	return refined, nil
}

// RefinementPrompt instructs the model to rewrite one image prompt using
// viewer feedback while keeping it tied to the narration.
const RefinementPrompt = `You rewrite image prompts for narrated video slides.

Given a scene's narration, its previous image prompt, and viewer feedback,
produce an improved image prompt that addresses the feedback while still
illustrating the narration. Avoid text in the image.

You must respond ONLY with a JSON object like: {"image_prompt": "..."}`

func validate(script *Script) error {
	script.Title = strings.TrimSpace(script.Title)
	script.OpeningPrompt = strings.TrimSpace(script.OpeningPrompt)
	if script.Title == "" {
		return fmt.Errorf("script generate: missing title: %w", services.ErrMalformedResponse)
	}
	if len(script.Scenes) < minScenes || len(script.Scenes) > maxScenes {
		return fmt.Errorf("script generate: %d scenes outside [%d, %d]: %w", len(script.Scenes), minScenes, maxScenes, services.ErrMalformedResponse)
	}
	for i := range script.Scenes {
		script.Scenes[i].Narration = strings.TrimSpace(script.Scenes[i].Narration)
		script.Scenes[i].ImagePrompt = strings.TrimSpace(script.Scenes[i].ImagePrompt)
		if script.Scenes[i].Narration == "" {
			return fmt.Errorf("script generate: scene %d missing narration: %w", i, services.ErrMalformedResponse)
		}
		if script.Scenes[i].ImagePrompt == "" {
			return fmt.Errorf("script generate: scene %d missing image prompt: %w", i, services.ErrMalformedResponse)
		}
	}
	return nil
}
