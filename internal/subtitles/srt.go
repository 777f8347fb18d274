package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Every component is
// truncated, never rounded. Negative input renders as zero.
func FormatTimestamp(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) {
		return "00:00:00,000"
	}
	whole := math.Floor(seconds)
	millis := int((seconds - whole) * 1000)
	total := int64(whole)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp reads HH:MM:SS,mmm (a period separator is accepted too).
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// Serialize renders entries as SRT. Sequence numbers are assigned from
// position, starting at 1.
func Serialize(entries []Entry) string {
	var sb strings.Builder
	for i, entry := range entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(entry.Start), FormatTimestamp(entry.End), entry.Text)
	}
	return sb.String()
}

// WriteFile writes entries to path as UTF-8 SRT.
func WriteFile(path string, entries []Entry) error {
	if err := os.WriteFile(path, []byte(Serialize(entries)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// Parse reads SRT cues. Blocks without a numeric index or a timing line are
// skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		block   []string
	)
	flush := func() {
		defer func() { block = block[:0] }()
		if len(block) < 2 {
			return
		}
		index, err := strconv.Atoi(strings.TrimSpace(block[0]))
		if err != nil {
			return
		}
		parts := strings.Split(block[1], "-->")
		if len(parts) != 2 {
			return
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return
		}
		entries = append(entries, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(block[2:], "\n"),
		})
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	flush()
	return entries, nil
}

// ReadFile parses the SRT file at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Validate checks cue ordering and timing. It returns a list of issues; an
// empty slice means the timeline is usable. expectedEnd, when positive, is
// compared with the final cue's end time at millisecond tolerance.
func Validate(entries []Entry, expectedEnd float64) []string {
	var issues []string
	if len(entries) == 0 {
		return append(issues, "empty_subtitle_file")
	}
	prevEnd := 0.0
	for i, entry := range entries {
		if entry.End < entry.Start {
			issues = append(issues, fmt.Sprintf("cue %d ends before it starts", i+1))
		}
		if entry.Start+0.001 < prevEnd {
			issues = append(issues, fmt.Sprintf("cue %d overlaps previous cue", i+1))
		}
		if strings.TrimSpace(entry.Text) == "" {
			issues = append(issues, fmt.Sprintf("cue %d has no text", i+1))
		}
		prevEnd = entry.End
	}
	if expectedEnd > 0 {
		if delta := math.Abs(expectedEnd - End(entries)); delta > 0.002 {
			issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.3fs", delta))
		}
	}
	return issues
}
