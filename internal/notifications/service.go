package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/config"
)

const userAgent = "Storyreel-Go/0.1.0"

// Event enumerates notification-worthy pipeline milestones.
type Event string

const (
	EventVideoStarted   Event = "video_started"
	EventVideoCompleted Event = "video_completed"
	EventSceneFailed    Event = "scene_failed"
	EventQueueCompleted Event = "queue_completed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event-specific fields used to format the message.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, data Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		scenes:   cfg.Notifications.Scenes,
		videos:   cfg.Notifications.Videos,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	scenes   bool
	videos   bool
	errors   bool
}

// Publish formats the event into an ntfy message and posts it. Events whose
// category is toggled off in configuration are silently skipped.
func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventSceneFailed:
		return n.scenes
	case EventVideoStarted, EventVideoCompleted, EventQueueCompleted:
		return n.videos
	case EventError:
		return n.errors
	default:
		return true
	}
}

func format(event Event, data Payload) (message, bool) {
	switch event {
	case EventVideoStarted:
		return message{
			title: "Storyreel - Video Started",
			body:  fmt.Sprintf("Generating: %s", field(data, "title")),
			tags:  []string{"storyreel", "video", "started"},
		}, true
	case EventVideoCompleted:
		body := fmt.Sprintf("Video ready: %s", field(data, "title"))
		if file := field(data, "finalFile"); file != "" {
			body += "\nFile: " + file
		}
		return message{
			title: "Storyreel - Video Ready",
			body:  body,
			tags:  []string{"storyreel", "video", "completed"},
		}, true
	case EventSceneFailed:
		return message{
			title:    "Storyreel - Scene Failed",
			body:     fmt.Sprintf("Scene %s of video %s failed: %s", field(data, "scene"), field(data, "video"), field(data, "error")),
			tags:     []string{"storyreel", "scene", "failed"},
			priority: "high",
		}, true
	case EventQueueCompleted:
		return message{
			title: "Storyreel - Queue Drained",
			body:  fmt.Sprintf("Processed %s videos (%s failed)", field(data, "processed"), field(data, "failed")),
			tags:  []string{"storyreel", "queue", "completed"},
		}, true
	case EventError:
		return message{
			title:    "Storyreel - Error",
			body:     fmt.Sprintf("Error with %s: %s", field(data, "context"), field(data, "error")),
			tags:     []string{"storyreel", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Storyreel - Test",
			body:     "Notification system test",
			tags:     []string{"storyreel", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func field(data Payload, key string) string {
	if data == nil {
		return ""
	}
	value, ok := data[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", value))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
