package scenes

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a scene.
type Status string

const (
	StatusPending      Status = "pending"
	StatusGenerating   Status = "generating"
	StatusMediaReady   Status = "media_ready"
	StatusTTSReady     Status = "tts_ready"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusRegenerating Status = "regenerating"
)

// SceneType distinguishes the AI-generated opening clip from narrated slides.
type SceneType string

const (
	TypeOpening SceneType = "opening"
	TypeSlide   SceneType = "slide"
)

// VideoStatus represents the lifecycle of a whole video job.
type VideoStatus string

const (
	VideoPending    VideoStatus = "pending"
	VideoProcessing VideoStatus = "processing"
	VideoCompleted  VideoStatus = "completed"
	VideoFailed     VideoStatus = "failed"
	VideoCancelled  VideoStatus = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusGenerating,
	StatusMediaReady,
	StatusTTSReady,
	StatusCompleted,
	StatusFailed,
	StatusRegenerating,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// forwardTransitions is the lifecycle graph. A scene's status only advances
// along these edges; regeneration is the single sanctioned way back.
var forwardTransitions = map[Status][]Status{
	StatusPending:      {StatusGenerating, StatusFailed},
	StatusGenerating:   {StatusMediaReady, StatusFailed},
	StatusMediaReady:   {StatusTTSReady, StatusFailed},
	StatusTTSReady:     {StatusCompleted, StatusFailed},
	StatusCompleted:    {StatusRegenerating},
	StatusFailed:       {StatusRegenerating},
	StatusRegenerating: {StatusGenerating, StatusFailed},
}

// CanTransition reports whether moving a scene from one status to another is
// allowed by the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, allowed := range forwardTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// processingStatuses are statuses reflecting in-flight work.
var processingStatuses = map[Status]struct{}{
	StatusGenerating:   {},
	StatusRegenerating: {},
}

// Scene is one addressable unit of a generated video.
type Scene struct {
	ID           int64
	VideoID      int64
	Ordering     int
	Type         SceneType
	Narration    string
	Prompt       string
	MediaURL     string
	AudioURL     string
	SubtitleURL  string
	ComposedURL  string
	Status       Status
	RetryCount   int
	UserFeedback string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Video is one narrated video job derived from a user prompt.
type Video struct {
	ID           int64
	Prompt       string
	Title        string
	OutputFormat string
	Status       VideoStatus
	FinalFile    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllStatuses returns the ordered list of known scene statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (s *Scene) IsProcessing() bool {
	_, ok := processingStatuses[s.Status]
	return ok
}

// IsTerminal reports whether the scene reached an end state.
func (s *Scene) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// SetFailed marks the scene failed with the given message.
func (s *Scene) SetFailed(message string) {
	s.Status = StatusFailed
	s.ErrorMessage = message
}

// ResetForRegeneration prepares a completed or failed scene for another
// generation pass. With mediaOnly, audio and subtitle artifacts survive and
// only the image/video side is redone; otherwise all artifacts are
// soft-invalidated. The row itself is never deleted.
func (s *Scene) ResetForRegeneration(mediaOnly bool) {
	s.Status = StatusRegenerating
	s.ErrorMessage = ""
	s.MediaURL = ""
	s.ComposedURL = ""
	if !mediaOnly {
		s.AudioURL = ""
		s.SubtitleURL = ""
	}
	s.RetryCount++
}
