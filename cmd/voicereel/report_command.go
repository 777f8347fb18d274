package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicereel/internal/journal"
	"voicereel/internal/subtitles"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show what the last run in the working directory did",
		Long: `Show the journal of the last run in the working directory: credential
quotas at start, every synthesis attempt, and every completed chunk. The
journal is purged when the next run starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.OpenExisting(cfg.Paths.WorkDir)
			if errors.Is(err, journal.ErrNoJournal) {
				return fmt.Errorf("no run journal in %s; run `voicereel run` first", cfg.Paths.WorkDir)
			}
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.LatestRun(cmd.Context())
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run journal in %s is empty", cfg.Paths.WorkDir)
			}
			report, err := store.Report(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, r *journal.Report) {
	out := cmd.OutOrStdout()
	run := r.Run

	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Status:   %s\n", run.Status)
	fmt.Fprintf(out, "  Voice:    %s (%s)\n", run.VoiceID, run.ModelID)
	fmt.Fprintf(out, "  Started:  %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), humanize.Time(run.StartedAt))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "  Elapsed:  %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(out, "  Text:     %s characters in %d chunks\n", humanize.Comma(int64(run.TotalChars)), run.ChunkCount)
	if run.Status == journal.RunFailed {
		if run.FailedChunk > 0 {
			fmt.Fprintf(out, "  Failed:   chunk %d (%s)\n", run.FailedChunk, run.ErrorReason)
		} else {
			fmt.Fprintf(out, "  Failed:   %s\n", run.ErrorReason)
		}
		fmt.Fprintf(out, "  Error:    %s\n", run.ErrorMessage)
	}
	fmt.Fprintln(out)

	credRows := make([][]string, 0, len(r.Credentials))
	for _, c := range r.Credentials {
		remaining := "unknown"
		if c.Remaining != nil {
			remaining = humanize.Comma(int64(*c.Remaining))
		}
		credRows = append(credRows, []string{fmt.Sprintf("%d", c.Position), c.Label, remaining, c.Error})
	}
	fmt.Fprintln(out, tableSpec{
		Title:   "Credentials at start",
		Headers: []string{"#", "Credential", "Remaining", "Error"},
		Rows:    credRows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	}.render())

	if len(r.Attempts) > 0 {
		rows := make([][]string, 0, len(r.Attempts))
		for _, a := range r.Attempts {
			status := ""
			if a.StatusCode > 0 {
				status = fmt.Sprintf("%d", a.StatusCode)
			}
			rows = append(rows, []string{fmt.Sprintf("%d", a.Chunk), a.Credential, string(a.Outcome), status, a.Message})
		}
		fmt.Fprintln(out, tableSpec{
			Title:   "Attempts",
			Headers: []string{"Chunk", "Credential", "Outcome", "HTTP", "Message"},
			Rows:    rows,
			Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
		}.render())
	}

	if len(r.Chunks) > 0 {
		rows := make([][]string, 0, len(r.Chunks))
		chars := 0
		for _, c := range r.Chunks {
			chars += c.Chars
			rows = append(rows, []string{
				fmt.Sprintf("%d", c.Chunk),
				humanize.Comma(int64(c.Chars)),
				c.Credential,
				subtitles.FormatTimestamp(c.Duration),
			})
		}
		fmt.Fprintln(out, tableSpec{
			Title:   "Completed chunks",
			Headers: []string{"Chunk", "Chars", "Credential", "Duration"},
			Rows:    rows,
			Footer:  []string{"Total", humanize.Comma(int64(chars)), "", subtitles.FormatTimestamp(r.AudioSeconds())},
			Aligns:  []columnAlignment{alignRight, alignRight, alignLeft, alignRight},
		}.render())
	}
}
