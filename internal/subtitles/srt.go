package subtitles

import (
	"fmt"
	"os"
	"strings"
)

// Cue is one numbered SRT block.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	millis := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	secs := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// Render serializes cues as SRT text.
func Render(cues []Cue) string {
	var builder strings.Builder
	for i, cue := range cues {
		index := cue.Index
		if index == 0 {
			index = i + 1
		}
		fmt.Fprintf(&builder, "%d\n%s --> %s\n%s\n\n", index, formatTimestamp(cue.Start), formatTimestamp(cue.End), strings.TrimSpace(cue.Text))
	}
	return builder.String()
}

// WriteFile renders cues and writes them to path.
func WriteFile(path string, cues []Cue) error {
	if len(cues) == 0 {
		return fmt.Errorf("write srt: no cues")
	}
	if err := os.WriteFile(path, []byte(Render(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}
