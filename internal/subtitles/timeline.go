package subtitles

import (
	"fmt"
	"math"

	"voicereel/internal/services"
	"voicereel/internal/textseg"
)

// Entry is a single subtitle cue. Start and End are in seconds.
type Entry struct {
	Index int
	Chunk int
	Start float64
	End   float64
	Text  string
}

// Duration returns the cue length in seconds.
func (e Entry) Duration() float64 { return e.End - e.Start }

// BuildTimeline assigns start and end times to every sub-unit. units and
// durations are indexed by chunk and must be the same length. A chunk whose
// sub-units carry no characters produces no cues, but the cursor still
// advances by its duration so later chunks stay aligned with the audio.
// displayWidth, when positive, fits each cue's text to one rendered line.
func BuildTimeline(units [][]textseg.SubUnit, durations []float64, displayWidth int) ([]Entry, error) {
	if len(units) != len(durations) {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "build timeline",
			fmt.Sprintf("%d sub-unit groups for %d clip durations", len(units), len(durations)), nil)
	}

	var entries []Entry
	cursor := 0.0
	for chunk, chunkUnits := range units {
		duration := durations[chunk]
		if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
			return nil, services.Wrap(services.ErrValidation, "subtitles", "build timeline",
				fmt.Sprintf("chunk %d has invalid duration %v", chunk+1, duration), nil)
		}
		total := textseg.TotalChars(chunkUnits)
		if total == 0 {
			cursor += duration
			continue
		}
		for _, unit := range chunkUnits {
			allotted := duration * (float64(unit.Chars) / float64(total))
			entries = append(entries, Entry{
				Index: len(entries) + 1,
				Chunk: chunk,
				Start: cursor,
				End:   cursor + allotted,
				Text:  textseg.WrapForDisplay(unit.Text, displayWidth),
			})
			cursor += allotted
		}
	}
	return entries, nil
}

// End returns the end time of the final cue, or zero for an empty timeline.
func End(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	return entries[len(entries)-1].End
}
