package ffprobe

import (
	"context"
	"fmt"
	"math"
)

// Prober measures decoded playback duration with ffprobe.
type Prober struct {
	Binary string
}

// Duration returns the clip's playback duration in seconds. A clip without
// an audio stream or a positive duration is reported as undecodable.
func (p Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := Inspect(ctx, p.Binary, path)
	if err != nil {
		return 0, err
	}
	if result.AudioStreamCount() == 0 {
		return 0, fmt.Errorf("ffprobe: %s has no audio stream", path)
	}
	seconds := result.DurationSeconds()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("ffprobe: %s reports unusable duration %q", path, result.Format.Duration)
	}
	return seconds, nil
}
