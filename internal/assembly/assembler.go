package assembly

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"voicereel/internal/services"
)

// Prober reports the decoded playback duration of a stored clip.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Concatenator joins clips, in the order given, into one output file.
type Concatenator interface {
	Concat(ctx context.Context, inputs []string, outputPath string) error
}

// Track is the combined output of a run.
type Track struct {
	Path      string
	Clips     int
	SizeBytes int64
}

// Assembler measures and joins clips.
type Assembler struct {
	prober Prober
	concat Concatenator
}

// NewAssembler wires the measuring and joining tools.
func NewAssembler(prober Prober, concat Concatenator) *Assembler {
	return &Assembler{prober: prober, concat: concat}
}

// Measure returns the clip's playback duration in seconds. The value comes
// from decoding the clip and is never estimated.
func (a *Assembler) Measure(ctx context.Context, clip string) (float64, error) {
	if a == nil || a.prober == nil {
		return 0, services.Wrap(services.ErrConfiguration, "assembly", "measure", "prober unavailable", nil)
	}
	seconds, err := a.prober.Duration(ctx, clip)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, services.Wrap(services.ErrAssembly, "assembly", "measure", filepath.Base(clip), err)
	}
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0, services.Wrap(services.ErrAssembly, "assembly", "measure", fmt.Sprintf("%s has no playable audio", filepath.Base(clip)), nil)
	}
	return seconds, nil
}

// Concatenate joins clips in order into output. At least one clip is required.
func (a *Assembler) Concatenate(ctx context.Context, clips []string, output string) (Track, error) {
	if a == nil || a.concat == nil {
		return Track{}, services.Wrap(services.ErrConfiguration, "assembly", "concatenate", "concatenator unavailable", nil)
	}
	if len(clips) == 0 {
		return Track{}, services.Wrap(services.ErrAssembly, "assembly", "concatenate", "no clips to concatenate", nil)
	}
	if err := a.concat.Concat(ctx, clips, output); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Track{}, ctxErr
		}
		return Track{}, services.Wrap(services.ErrAssembly, "assembly", "concatenate", filepath.Base(output), err)
	}
	info, err := os.Stat(output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Track{}, services.Wrap(services.ErrAssembly, "assembly", "concatenate", "combined track was not written", err)
		}
		return Track{}, services.Wrap(services.ErrAssembly, "assembly", "concatenate", "stat combined track", err)
	}
	return Track{Path: output, Clips: len(clips), SizeBytes: info.Size()}, nil
}
