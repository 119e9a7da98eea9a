package subtitles

import (
	"strings"
	"unicode/utf8"

	"storyreel/internal/segmentation"
)

// SplitSentences breaks narration into sentences on terminal punctuation.
// Trailing fragments without punctuation become their own sentence.
func SplitSentences(narration string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range narration {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}
	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}
	return sentences
}

// BuildCues pairs narration sentences with detected speech intervals. When the
// interval count does not match the sentence count, timing falls back to
// allocating the audio duration proportionally to each sentence's length.
func BuildCues(sentences []string, intervals []segmentation.Interval, totalDuration float64) []Cue {
	if len(sentences) == 0 {
		return nil
	}
	if len(intervals) == len(sentences) {
		cues := make([]Cue, len(sentences))
		for i, sentence := range sentences {
			cues[i] = Cue{
				Index: i + 1,
				Start: intervals[i].Start,
				End:   intervals[i].End,
				Text:  sentence,
			}
		}
		return cues
	}
	return proportionalCues(sentences, totalDuration)
}

// proportionalCues spreads totalDuration across sentences weighted by
// character count, so longer sentences hold the screen longer.
func proportionalCues(sentences []string, totalDuration float64) []Cue {
	if totalDuration <= 0 {
		totalDuration = float64(len(sentences))
	}

	totalChars := 0
	for _, sentence := range sentences {
		totalChars += utf8.RuneCountInString(sentence)
	}
	if totalChars == 0 {
		return nil
	}

	cues := make([]Cue, len(sentences))
	cursor := 0.0
	for i, sentence := range sentences {
		share := float64(utf8.RuneCountInString(sentence)) / float64(totalChars)
		end := cursor + share*totalDuration
		if i == len(sentences)-1 {
			end = totalDuration
		}
		cues[i] = Cue{
			Index: i + 1,
			Start: cursor,
			End:   end,
			Text:  sentence,
		}
		cursor = end
	}
	return cues
}
