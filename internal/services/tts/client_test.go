package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/services"
)

func TestVoiceCatalog(t *testing.T) {
	voices, err := Voices()
	if err != nil {
		t.Fatalf("Voices returned error: %v", err)
	}
	if len(voices) == 0 {
		t.Fatal("expected built-in voices")
	}
	for _, voice := range voices {
		if voice.Name == "" || voice.Description == "" {
			t.Fatalf("incomplete catalog entry: %#v", voice)
		}
	}

	voice, ok := LookupVoice("ALLOY")
	if !ok {
		t.Fatal("lookup should be case-insensitive")
	}
	if voice.Name != "alloy" {
		t.Fatalf("unexpected voice %#v", voice)
	}
	if _, ok := LookupVoice("nonexistent"); ok {
		t.Fatal("unknown voice should not resolve")
	}
}

func TestSynthesizeReturnsAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var payload speechRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Voice != "sage" || payload.ResponseFormat != "wav" {
			t.Fatalf("unexpected request %#v", payload)
		}
		_, _ = w.Write([]byte("RIFF-audio"))
	}))
	defer server.Close()

	client := NewClient("test", WithBaseURL(server.URL))
	data, err := client.Synthesize(context.Background(), "speech-1", "sage", "The moon pulls the ocean.")
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(data) != "RIFF-audio" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestSynthesizeDefaultVoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload speechRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Voice != "verse" {
			t.Fatalf("voice = %q", payload.Voice)
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := NewClient("test", WithBaseURL(server.URL), WithVoice("verse"))
	if _, err := client.Synthesize(context.Background(), "speech-1", "", "Hello."); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
}

func TestSynthesizeUnknownVoice(t *testing.T) {
	client := NewClient("test")
	_, err := client.Synthesize(context.Background(), "speech-1", "robotic-void", "Hello.")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSynthesizeOverloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("test", WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), "speech-1", "alloy", "Hello.")
	if !errors.Is(err, services.ErrOverloaded) {
		t.Fatalf("expected ErrOverloaded, got %v", err)
	}
}

func TestSynthesizeToFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("wav-bytes"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "scene.wav")
	client := NewClient("test", WithBaseURL(server.URL))
	if err := client.SynthesizeToFile(context.Background(), "speech-1", "alloy", "Hello.", path); err != nil {
		t.Fatalf("SynthesizeToFile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "wav-bytes" {
		t.Fatalf("unexpected contents %q", data)
	}
}
