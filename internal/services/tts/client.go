package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"storyreel/internal/services"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultHTTPTimeout = 120 * time.Second
	defaultVoice       = "alloy"
	responseFormat     = "wav"
)

// Client wraps a speech synthesis API that streams audio bytes back.
type Client struct {
	apiKey     string
	baseURL    string
	voice      string
	httpClient *http.Client
}

// Option customizes the speech client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithVoice sets the default narration voice.
func WithVoice(voice string) Option {
	return func(c *Client) {
		voice = strings.TrimSpace(voice)
		if voice != "" {
			c.voice = voice
		}
	}
}

// NewClient constructs a speech synthesis client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		voice:      defaultVoice,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.voice == "" {
		client.voice = defaultVoice
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Voice returns the configured default voice name.
func (c *Client) Voice() string {
	return c.voice
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize renders narration audio for the text using the given model and
// returns the raw audio bytes. An empty voice falls back to the configured
// default.
func (c *Client) Synthesize(ctx context.Context, model, voice, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("tts synthesize: text required: %w", services.ErrValidation)
	}
	key := c.resolveKey(ctx)
	if key == "" {
		return nil, fmt.Errorf("tts synthesize: api key required: %w", services.ErrConfiguration)
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = c.voice
	}
	if _, ok := LookupVoice(voice); !ok {
		return nil, fmt.Errorf("tts synthesize: unknown voice %q: %w", voice, services.ErrValidation)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/audio/speech")
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: build url: %w", err)
	}
	encoded, err := json.Marshal(speechRequest{
		Model:          model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: responseFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: request failed: %w: %w", err, services.ErrTransient)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError("tts synthesize", resp.StatusCode, body)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("tts synthesize: empty audio payload: %w", services.ErrMalformedResponse)
	}
	return body, nil
}

// SynthesizeToFile renders narration audio and writes it to path.
func (c *Client) SynthesizeToFile(ctx context.Context, model, voice, text, path string) error {
	data, err := c.Synthesize(ctx, model, voice, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tts synthesize: write %s: %w", path, err)
	}
	return nil
}

func (c *Client) resolveKey(ctx context.Context) string {
	if key, ok := services.APIKeyFromContext(ctx); ok && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	}
	return c.apiKey
}

func statusError(op string, status int, body []byte) error {
	base := fmt.Errorf("%s: http %d: %s", op, status, strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", base, services.ErrRateLimited)
	case status == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %w", base, services.ErrOverloaded)
	case status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %w", base, services.ErrTimeout)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", base, services.ErrTransient)
	default:
		return base
	}
}
