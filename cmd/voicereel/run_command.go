package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicereel/internal/config"
	"voicereel/internal/logging"
	"voicereel/internal/media/ffmpeg"
	"voicereel/internal/media/ffprobe"
	"voicereel/internal/notifications"
	"voicereel/internal/pipeline"
	"voicereel/internal/preflight"
	"voicereel/internal/subtitles"
	"voicereel/internal/textutil"
)

type runOptions struct {
	file          string
	voice         string
	model         string
	language      string
	maxChunkChars int
	name          string
	bundle        bool
	exportDir     string
	jsonOutput    bool
	noProgress    bool
}

type chunkSummary struct {
	Chunk      int     `json:"chunk"`
	Chars      int     `json:"chars"`
	Credential string  `json:"credential"`
	Seconds    float64 `json:"seconds"`
	Clip       string  `json:"clip"`
}

type runSummary struct {
	RunID           string         `json:"run_id"`
	Chunks          int            `json:"chunks"`
	Characters      int            `json:"characters"`
	AudioSeconds    float64        `json:"audio_seconds"`
	Combined        string         `json:"combined"`
	Subtitles       string         `json:"subtitles"`
	SubtitleEntries int            `json:"subtitle_entries"`
	Bundle          string         `json:"bundle,omitempty"`
	Exported        []string       `json:"exported,omitempty"`
	Journal         string         `json:"journal,omitempty"`
	Assignments     []chunkSummary `json:"assignments"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [text...]",
		Short: "Synthesize text into a combined track with subtitles",
		Long: `Synthesize text into one narration track plus an SRT subtitle file.

Text comes from --file (use "-" for stdin), the positional arguments, or piped
stdin. Every run purges the previous run's artifacts from the working
directory before writing new ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := applyRunOverrides(cmd, *base, opts)
			if err != nil {
				return err
			}
			text, err := readInputText(cmd, args, opts.file)
			if err != nil {
				return err
			}
			return executeRun(cmd, cfg, text, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read text from this file (\"-\" for stdin)")
	cmd.Flags().StringVar(&opts.voice, "voice", "", "Voice id (overrides voice.voice_id)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model id (overrides voice.model_id)")
	cmd.Flags().StringVar(&opts.language, "language", "", "Subtitle language code (overrides segmentation.subtitle_language)")
	cmd.Flags().IntVar(&opts.maxChunkChars, "max-chunk-chars", 0, "Maximum characters per request (overrides segmentation.max_chunk_chars)")
	cmd.Flags().StringVar(&opts.name, "name", "", "Title used to name the combined track, subtitles, and bundle")
	cmd.Flags().BoolVar(&opts.bundle, "bundle", false, "Also write a zip of every clip and output")
	cmd.Flags().StringVar(&opts.exportDir, "export-dir", "", "Copy outputs to this directory after the run")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// applyRunOverrides layers command flags over the loaded config and
// re-validates the result.
func applyRunOverrides(cmd *cobra.Command, cfg config.Config, opts runOptions) (*config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("voice") {
		cfg.Voice.VoiceID = strings.TrimSpace(opts.voice)
	}
	if flags.Changed("model") {
		cfg.Voice.ModelID = strings.TrimSpace(opts.model)
	}
	if flags.Changed("language") {
		cfg.Segmentation.SubtitleLanguage = strings.ToLower(strings.TrimSpace(opts.language))
	}
	if flags.Changed("max-chunk-chars") {
		cfg.Segmentation.MaxChunkChars = opts.maxChunkChars
	}
	if flags.Changed("bundle") {
		cfg.Output.Bundle = opts.bundle
	}
	if flags.Changed("export-dir") {
		dir, err := config.ExpandPath(strings.TrimSpace(opts.exportDir))
		if err != nil {
			return nil, fmt.Errorf("resolve --export-dir: %w", err)
		}
		cfg.Output.ExportDir = dir
	}
	if flags.Changed("name") {
		combined := textutil.ArtifactName(opts.name, ".mp3")
		if combined == "" {
			return nil, fmt.Errorf("--name %q has no usable file name characters", opts.name)
		}
		cfg.Output.CombinedName = combined
		cfg.Output.SubtitleName = textutil.ArtifactName(opts.name, ".srt")
		cfg.Output.BundleName = textutil.ArtifactName(opts.name, ".zip")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	return &cfg, nil
}

func executeRun(cmd *cobra.Command, cfg *config.Config, text string, opts runOptions) error {
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	if failed := preflight.Failed(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
		lines := make([]string, 0, len(failed))
		for _, f := range failed {
			lines = append(lines, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		}
		return fmt.Errorf("preflight failed:\n  %s", strings.Join(lines, "\n  "))
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	client := newProviderClient(cfg)
	stderr := cmd.ErrOrStderr()
	reporter := newProgressReporter(stderr, !opts.noProgress && !opts.jsonOutput && isTerminal(stderr))

	p, err := pipeline.New(pipeline.Deps{
		Synthesizer:  client,
		Quota:        client,
		Prober:       ffprobe.Prober{Binary: cfg.FFprobeBinary()},
		Concatenator: ffmpeg.Concatenator{Binary: cfg.FFmpegBinary()},
		Logger:       logger,
		Progress:     reporter.handle,
	})
	if err != nil {
		return err
	}
	rc, err := pipeline.FromConfig(cfg, text)
	if err != nil {
		return err
	}

	notifier := notifications.NewService(cfg)
	started := time.Now()
	result, runErr := p.Run(runCtx, rc)
	reporter.finish()

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), 15*time.Second)
	defer cancel()
	if runErr != nil {
		chunk := 0
		var chunkErr *pipeline.ChunkError
		if errors.As(runErr, &chunkErr) {
			chunk = chunkErr.Chunk
		}
		if !errors.Is(runErr, context.Canceled) {
			if nerr := notifier.NotifyRunFailed(notifyCtx, runErr, chunk); nerr != nil {
				logger.Warn("failure notification not sent", logging.Error(nerr))
			}
		}
		return runErr
	}

	summary := summarizeRun(result)
	if nerr := notifier.NotifyRunCompleted(notifyCtx, notifications.RunSummary{
		Chunks:       summary.Chunks,
		Characters:   summary.Characters,
		AudioSeconds: summary.AudioSeconds,
		Output:       firstNonEmpty(firstExported(result.Exported), result.Track.Path),
		Elapsed:      time.Since(started),
	}); nerr != nil {
		logger.Warn("completion notification not sent", logging.Error(nerr))
	}

	if opts.jsonOutput {
		return writeJSON(cmd, summary)
	}
	printRunSummary(cmd, summary)
	return nil
}

func summarizeRun(result *pipeline.Result) runSummary {
	summary := runSummary{
		RunID:           result.RunID,
		Chunks:          len(result.Chunks),
		Characters:      result.TotalChars,
		AudioSeconds:    result.Duration,
		Combined:        result.Track.Path,
		Subtitles:       result.SubtitlePath,
		SubtitleEntries: result.Entries,
		Bundle:          result.BundlePath,
		Exported:        result.Exported,
		Journal:         result.JournalPath,
		Assignments:     make([]chunkSummary, 0, len(result.Chunks)),
	}
	for _, c := range result.Chunks {
		summary.Assignments = append(summary.Assignments, chunkSummary{
			Chunk:      c.Index + 1,
			Chars:      c.Chars,
			Credential: c.Credential,
			Seconds:    c.Duration,
			Clip:       c.ClipPath,
		})
	}
	return summary
}

func printRunSummary(cmd *cobra.Command, s runSummary) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		rows = append(rows, []string{
			fmt.Sprintf("%d", a.Chunk),
			humanize.Comma(int64(a.Chars)),
			a.Credential,
			subtitles.FormatTimestamp(a.Seconds),
		})
	}
	fmt.Fprintln(out, tableSpec{
		Headers: []string{"Chunk", "Chars", "Credential", "Duration"},
		Rows:    rows,
		Footer:  []string{"Total", humanize.Comma(int64(s.Characters)), "", subtitles.FormatTimestamp(s.AudioSeconds)},
		Aligns:  []columnAlignment{alignRight, alignRight, alignLeft, alignRight},
	}.render())

	fmt.Fprintf(out, "Combined track: %s\n", s.Combined)
	fmt.Fprintf(out, "Subtitles:      %s (%d entries)\n", s.Subtitles, s.SubtitleEntries)
	if s.Bundle != "" {
		fmt.Fprintf(out, "Bundle:         %s\n", s.Bundle)
	}
	for _, path := range s.Exported {
		fmt.Fprintf(out, "Exported:       %s\n", path)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstExported(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
