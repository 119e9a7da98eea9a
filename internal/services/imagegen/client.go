package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
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
	defaultSize        = "1536x1024"
	portraitSize       = "1024x1536"
)

// Client wraps an OpenAI-compatible image generation API that returns inline
// base64 payloads.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the image client.
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

// NewClient constructs an image generation client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Type    string `json:"type"`
	} `json:"error"`
}

// SizeForFormat maps a video output format to the image size parameter.
func SizeForFormat(outputFormat string) string {
	if strings.EqualFold(strings.TrimSpace(outputFormat), "portrait") {
		return portraitSize
	}
	return defaultSize
}

// Generate renders one still image for the prompt and returns the decoded
// bytes. Safety rejections surface as a ContentPolicyError so the dispatcher
// can sanitize the prompt and retry.
func (c *Client) Generate(ctx context.Context, model, prompt, size string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("image generate: prompt required: %w", services.ErrValidation)
	}
	key := c.resolveKey(ctx)
	if key == "" {
		return nil, fmt.Errorf("image generate: api key required: %w", services.ErrConfiguration)
	}
	if size == "" {
		size = defaultSize
	}

	endpoint, err := url.JoinPath(c.baseURL, "/images/generations")
	if err != nil {
		return nil, fmt.Errorf("image generate: build url: %w", err)
	}
	encoded, err := json.Marshal(imageRequest{Model: model, Prompt: prompt, Size: size, N: 1})
	if err != nil {
		return nil, fmt.Errorf("image generate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("image generate: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image generate: request failed: %w: %w", err, services.ErrTransient)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image generate: read body: %w", err)
	}

	var parsed imageResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode >= http.StatusMultipleChoices {
		if decodeErr == nil && parsed.Error != nil && isSafetyRejection(parsed.Error.Code, parsed.Error.Type, parsed.Error.Message) {
			return nil, &services.ContentPolicyError{
				FinishReason: parsed.Error.Code,
				Prompt:       prompt,
			}
		}
		return nil, statusError("image generate", resp.StatusCode, body)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("image generate: decode response: %w: %w", decodeErr, services.ErrMalformedResponse)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("image generate: api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	if len(parsed.Data) == 0 || strings.TrimSpace(parsed.Data[0].B64JSON) == "" {
		return nil, fmt.Errorf("image generate: empty image payload: %w", services.ErrMalformedResponse)
	}

	decoded, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("image generate: decode base64: %w: %w", err, services.ErrMalformedResponse)
	}
	return decoded, nil
}

// GenerateToFile renders an image and writes it to path.
func (c *Client) GenerateToFile(ctx context.Context, model, prompt, size, path string) error {
	data, err := c.Generate(ctx, model, prompt, size)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("image generate: write %s: %w", path, err)
	}
	return nil
}

func (c *Client) resolveKey(ctx context.Context) string {
	if key, ok := services.APIKeyFromContext(ctx); ok && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	}
	return c.apiKey
}

func isSafetyRejection(code, errType, message string) bool {
	for _, token := range []string{code, errType, message} {
		lowered := strings.ToLower(token)
		if strings.Contains(lowered, "content_policy") ||
			strings.Contains(lowered, "safety") ||
			strings.Contains(lowered, "moderation") {
			return true
		}
	}
	return false
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
