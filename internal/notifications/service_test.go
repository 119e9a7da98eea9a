package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyreel/internal/notifications"
	"storyreel/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.Publish(context.Background(), notifications.EventVideoCompleted, notifications.Payload{"title": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "video started",
			event: notifications.EventVideoStarted,
			payload: notifications.Payload{
				"title": "How Tides Work",
			},
			expectTitle:   "Storyreel - Video Started",
			expectMessage: "Generating: How Tides Work",
			expectTags:    "storyreel,video,started",
		},
		{
			name:  "video completed",
			event: notifications.EventVideoCompleted,
			payload: notifications.Payload{
				"title":     "How Tides Work",
				"finalFile": "/videos/how-tides-work-7.mp4",
			},
			expectTitle:   "Storyreel - Video Ready",
			expectMessage: "Video ready: How Tides Work\nFile: /videos/how-tides-work-7.mp4",
			expectTags:    "storyreel,video,completed",
		},
		{
			name:  "scene failed",
			event: notifications.EventSceneFailed,
			payload: notifications.Payload{
				"scene": "3",
				"video": "7",
				"error": "image generation rejected",
			},
			expectTitle:    "Storyreel - Scene Failed",
			expectMessage:  "Scene 3 of video 7 failed: image generation rejected",
			expectTags:     "storyreel,scene,failed",
			expectPriority: "high",
		},
		{
			name:  "queue completed",
			event: notifications.EventQueueCompleted,
			payload: notifications.Payload{
				"processed": "4",
				"failed":    "1",
			},
			expectTitle:   "Storyreel - Queue Drained",
			expectMessage: "Processed 4 videos (1 failed)",
			expectTags:    "storyreel,queue,completed",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "composition",
				"error":   "ffmpeg exited with status 1",
			},
			expectTitle:    "Storyreel - Error",
			expectMessage:  "Error with composition: ffmpeg exited with status 1",
			expectTags:     "storyreel,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			payload:        notifications.Payload{},
			expectTitle:    "Storyreel - Test",
			expectMessage:  "Notification system test",
			expectTags:     "storyreel,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotTitle, gotTags, gotPriority, gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotTitle = r.Header.Get("Title")
				gotTags = r.Header.Get("Tags")
				gotPriority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				gotBody = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t)
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.Scenes = true
			cfg.Notifications.Videos = true
			cfg.Notifications.Errors = true

			svc := notifications.NewService(cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("publish: %v", err)
			}
			if gotTitle != tc.expectTitle {
				t.Fatalf("title = %q, want %q", gotTitle, tc.expectTitle)
			}
			if gotBody != tc.expectMessage {
				t.Fatalf("message = %q, want %q", gotBody, tc.expectMessage)
			}
			if gotTags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", gotTags, tc.expectTags)
			}
			if gotPriority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", gotPriority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceHonorsCategoryToggles(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Scenes = false
	cfg.Notifications.Videos = false
	cfg.Notifications.Errors = true

	svc := notifications.NewService(cfg)
	ctx := context.Background()
	if err := svc.Publish(ctx, notifications.EventSceneFailed, notifications.Payload{"scene": "1", "video": "2", "error": "x"}); err != nil {
		t.Fatalf("scene publish: %v", err)
	}
	if err := svc.Publish(ctx, notifications.EventVideoCompleted, notifications.Payload{"title": "x"}); err != nil {
		t.Fatalf("video publish: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected suppressed events, server saw %d calls", calls)
	}
	if err := svc.Publish(ctx, notifications.EventError, notifications.Payload{"context": "x", "error": "y"}); err != nil {
		t.Fatalf("error publish: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call after error event, got %d", calls)
	}
}

func TestNtfyServiceReportsServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Videos = true

	svc := notifications.NewService(cfg)
	if err := svc.Publish(context.Background(), notifications.EventVideoCompleted, notifications.Payload{"title": "x"}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
