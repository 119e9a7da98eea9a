package subtitles

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseFile reads an SRT file back into cues. Malformed blocks are skipped
// rather than failing the whole file.
func ParseFile(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}
	return parse(string(data)), nil
}

func parse(content string) []Cue {
	var cues []Cue
	scanner := bufio.NewScanner(strings.NewReader(content))

	var block []string
	flush := func() {
		if cue, ok := parseBlock(block); ok {
			cues = append(cues, cue)
		}
		block = block[:0]
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()
	return cues
}

func parseBlock(lines []string) (Cue, bool) {
	if len(lines) < 2 {
		return Cue{}, false
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Cue{}, false
	}
	start, end, ok := parseTimeRange(lines[1])
	if !ok {
		return Cue{}, false
	}
	text := strings.TrimSpace(strings.Join(lines[2:], "\n"))
	if text == "" {
		return Cue{}, false
	}
	return Cue{Index: index, Start: start, End: end, Text: text}, true
}

func parseTimeRange(line string) (float64, float64, bool) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, okStart := parseTimestamp(parts[0])
	end, okEnd := parseTimestamp(parts[1])
	if !okStart || !okEnd {
		return 0, 0, false
	}
	return start, end, true
}

func parseTimestamp(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	var h, m, s, ms int
	if _, err := fmt.Sscanf(raw, "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, false
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, true
}

// Shift returns a copy of cues with every timestamp moved by offset seconds.
func Shift(cues []Cue, offset float64) []Cue {
	shifted := make([]Cue, len(cues))
	for i, cue := range cues {
		cue.Start += offset
		cue.End += offset
		shifted[i] = cue
	}
	return shifted
}

// Merge concatenates cue tracks into one, renumbering indexes. Tracks are
// expected to already carry absolute timestamps.
func Merge(tracks ...[]Cue) []Cue {
	var merged []Cue
	for _, track := range tracks {
		merged = append(merged, track...)
	}
	for i := range merged {
		merged[i].Index = i + 1
	}
	return merged
}
