package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"voicereel/internal/pipeline"
)

// progressReporter draws a per-chunk progress bar on an interactive
// terminal. When stderr is not a terminal it stays silent and the log
// carries progress instead.
type progressReporter struct {
	out         io.Writer
	interactive bool
	bar         *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer, interactive bool) *progressReporter {
	return &progressReporter{out: out, interactive: interactive}
}

func (r *progressReporter) handle(ev pipeline.Event) {
	if !r.interactive {
		return
	}
	switch ev.State {
	case pipeline.StateSynthesizing:
		if r.bar == nil {
			r.bar = progressbar.NewOptions(ev.Chunks,
				progressbar.OptionSetWriter(r.out),
				progressbar.OptionSetDescription("synthesizing"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		if ev.Credential != "" {
			r.bar.Describe(fmt.Sprintf("chunk %d/%d via %s", ev.Chunk, ev.Chunks, ev.Credential))
		} else {
			r.bar.Describe(fmt.Sprintf("chunk %d/%d", ev.Chunk, ev.Chunks))
		}
		_ = r.bar.Set(ev.Completed)
	case pipeline.StateAssembling, pipeline.StateDone, pipeline.StateFailed:
		r.finish()
	}
}

func (r *progressReporter) finish() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	r.bar = nil
}
