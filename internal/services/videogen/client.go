package videogen

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
	defaultBaseURL      = "https://api.openai.com/v1"
	defaultHTTPTimeout  = 60 * time.Second
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 10 * time.Minute
)

// Client wraps an asynchronous video generation API. Generation starts a
// server-side operation which the client polls until it completes or the
// polling window closes.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
	sleep        func(context.Context, time.Duration) error
}

// Option customizes the video client.
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

// WithPolling overrides the poll interval and overall polling window.
func WithPolling(interval, timeout time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if timeout > 0 {
			c.pollTimeout = timeout
		}
	}
}

// NewClient constructs a video generation client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
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
	if client.sleep == nil {
		client.sleep = sleepContext
	}
	return client
}

// Operation tracks an in-flight server-side generation job.
type Operation struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	Error    string `json:"error"`
}

// Done reports whether the operation reached a terminal state.
func (o Operation) Done() bool {
	switch strings.ToLower(o.Status) {
	case "succeeded", "completed", "failed", "cancelled":
		return true
	}
	return false
}

// Failed reports whether the operation terminated without a video.
func (o Operation) Failed() bool {
	switch strings.ToLower(o.Status) {
	case "failed", "cancelled":
		return true
	}
	return false
}

type startRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

// Start launches a generation operation for the prompt.
func (c *Client) Start(ctx context.Context, model, prompt, size string) (*Operation, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("video start: prompt required: %w", services.ErrValidation)
	}
	key := c.resolveKey(ctx)
	if key == "" {
		return nil, fmt.Errorf("video start: api key required: %w", services.ErrConfiguration)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/videos/generations")
	if err != nil {
		return nil, fmt.Errorf("video start: build url: %w", err)
	}
	encoded, err := json.Marshal(startRequest{Model: model, Prompt: prompt, Size: size})
	if err != nil {
		return nil, fmt.Errorf("video start: encode request: %w", err)
	}
	op, err := c.doOperationRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded), "video start")
	if err != nil {
		return nil, err
	}
	if op.ID == "" {
		return nil, fmt.Errorf("video start: missing operation id: %w", services.ErrMalformedResponse)
	}
	return op, nil
}

// Poll fetches the current state of an operation.
func (c *Client) Poll(ctx context.Context, operationID string) (*Operation, error) {
	if strings.TrimSpace(operationID) == "" {
		return nil, fmt.Errorf("video poll: operation id required: %w", services.ErrValidation)
	}
	endpoint, err := url.JoinPath(c.baseURL, "/videos/generations", operationID)
	if err != nil {
		return nil, fmt.Errorf("video poll: build url: %w", err)
	}
	return c.doOperationRequest(ctx, http.MethodGet, endpoint, nil, "video poll")
}

// Await polls an operation until it reaches a terminal state or the polling
// window closes. A closed window reports ErrTimeout.
func (c *Client) Await(ctx context.Context, operationID string) (*Operation, error) {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		op, err := c.Poll(ctx, operationID)
		if err != nil {
			return nil, err
		}
		if op.Done() {
			if op.Failed() {
				return nil, fmt.Errorf("video generation %s: %s: %w", op.Status, strings.TrimSpace(op.Error), services.ErrExternalTool)
			}
			if strings.TrimSpace(op.VideoURL) == "" {
				return nil, fmt.Errorf("video generation succeeded without url: %w", services.ErrMalformedResponse)
			}
			return op, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("video generation still %s after %s: %w", op.Status, c.pollTimeout, services.ErrTimeout)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}

// GenerateToFile runs the full start/await/download sequence and writes the
// resulting clip to path.
func (c *Client) GenerateToFile(ctx context.Context, model, prompt, size, path string) error {
	op, err := c.Start(ctx, model, prompt, size)
	if err != nil {
		return err
	}
	done, err := c.Await(ctx, op.ID)
	if err != nil {
		return err
	}
	return c.download(ctx, done.VideoURL, path)
}

func (c *Client) download(ctx context.Context, videoURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return fmt.Errorf("video download: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.resolveKey(ctx))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("video download: request failed: %w: %w", err, services.ErrTransient)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return statusError("video download", resp.StatusCode, nil)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("video download: create %s: %w", path, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("video download: write %s: %w", path, err)
	}
	return nil
}

func (c *Client) doOperationRequest(ctx context.Context, method, endpoint string, body io.Reader, op string) (*Operation, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.resolveKey(ctx))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w: %w", op, err, services.ErrTransient)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(op, resp.StatusCode, raw)
	}

	var parsed Operation
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w: %w", op, err, services.ErrMalformedResponse)
	}
	return &parsed, nil
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

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
