package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/segmentation"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.25, "00:01:01,250"},
		{3661.007, "01:01:01,007"},
		{-2, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := formatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestRender(t *testing.T) {
	cues := []Cue{
		{Start: 0, End: 2.5, Text: "First line."},
		{Start: 2.5, End: 5, Text: "Second line."},
	}
	out := Render(cues)
	if !strings.Contains(out, "1\n00:00:00,000 --> 00:00:02,500\nFirst line.") {
		t.Fatalf("unexpected render output:\n%s", out)
	}
	if !strings.Contains(out, "2\n00:00:02,500 --> 00:00:05,000\nSecond line.") {
		t.Fatalf("unexpected render output:\n%s", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Fatal("expected trailing blank line")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.srt")
	cues := []Cue{{Start: 0, End: 1, Text: "Hello."}}
	if err := WriteFile(path, cues); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "Hello.") {
		t.Fatalf("unexpected file contents: %s", data)
	}

	if err := WriteFile(path, nil); err == nil {
		t.Fatal("expected error for empty cue list")
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One. Two! Three? Trailing fragment")
	want := []string{"One.", "Two!", "Three?", "Trailing fragment"}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences: %v", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}

	if out := SplitSentences("   "); out != nil {
		t.Fatalf("expected nil for whitespace input, got %v", out)
	}
}

func TestBuildCuesMatchingIntervals(t *testing.T) {
	sentences := []string{"First.", "Second."}
	intervals := []segmentation.Interval{{Start: 0, End: 3}, {Start: 3, End: 7}}
	cues := BuildCues(sentences, intervals, 7)
	if len(cues) != 2 {
		t.Fatalf("got %d cues", len(cues))
	}
	if cues[0].Start != 0 || cues[0].End != 3 || cues[1].Start != 3 || cues[1].End != 7 {
		t.Fatalf("unexpected timings: %#v", cues)
	}
}

func TestBuildCuesProportionalFallback(t *testing.T) {
	sentences := []string{"Tiny.", "A very much longer sentence right here."}
	cues := BuildCues(sentences, nil, 10)
	if len(cues) != 2 {
		t.Fatalf("got %d cues", len(cues))
	}
	if cues[0].Start != 0 {
		t.Fatalf("first cue start = %v", cues[0].Start)
	}
	if cues[1].End != 10 {
		t.Fatalf("last cue end = %v, want total duration", cues[1].End)
	}
	if cues[0].End != cues[1].Start {
		t.Fatal("cues should be contiguous")
	}
	firstSpan := cues[0].End - cues[0].Start
	secondSpan := cues[1].End - cues[1].Start
	if firstSpan >= secondSpan {
		t.Fatalf("longer sentence should hold longer: %v vs %v", firstSpan, secondSpan)
	}
}
