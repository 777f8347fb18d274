package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicereel/internal/textseg"
)

const previewRunes = 48

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var (
		file          string
		maxChunkChars int
		unitSize      int
		language      string
		showUnits     bool
	)

	cmd := &cobra.Command{
		Use:   "segment [text...]",
		Short: "Preview how text will be chunked without calling the provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text, err := readInputText(cmd, args, file)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-chunk-chars") {
				maxChunkChars = cfg.Segmentation.MaxChunkChars
			}
			if !cmd.Flags().Changed("unit-size") {
				unitSize = cfg.Segmentation.SubtitleUnitSize
			}
			if !cmd.Flags().Changed("language") {
				language = cfg.Segmentation.SubtitleLanguage
			}
			mode := textseg.ModeFor(language, cfg.Segmentation.SubtitleMode)

			chunks, err := textseg.SplitIntoChunks(text, maxChunkChars)
			if err != nil {
				return fmt.Errorf("segment text: %w", err)
			}
			if len(chunks) == 0 {
				return fmt.Errorf("input text is empty")
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(chunks))
			total := 0
			var unitTables []string
			for _, chunk := range chunks {
				units, err := textseg.SplitIntoSubUnits(chunk.Text, unitSize, mode)
				if err != nil {
					return fmt.Errorf("split chunk %d: %w", chunk.Index+1, err)
				}
				total += chunk.Chars
				over := ""
				if chunk.Chars > maxChunkChars {
					over = "over limit"
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", chunk.Index+1),
					humanize.Comma(int64(chunk.Chars)),
					fmt.Sprintf("%d", len(units)),
					preview(chunk.Text),
					over,
				})
				if showUnits {
					unitRows := make([][]string, 0, len(units))
					for i, u := range units {
						unitRows = append(unitRows, []string{fmt.Sprintf("%d", i+1), fmt.Sprintf("%d", u.Chars), u.Text})
					}
					unitTables = append(unitTables, tableSpec{
						Title:   fmt.Sprintf("Chunk %d sub-units", chunk.Index+1),
						Headers: []string{"#", "Chars", "Text"},
						Rows:    unitRows,
						Aligns:  []columnAlignment{alignRight, alignRight, alignLeft},
					}.render())
				}
			}

			fmt.Fprintf(out, "%d chunks, %s characters, %s grouping\n", len(chunks), humanize.Comma(int64(total)), mode)
			fmt.Fprintln(out, tableSpec{
				Headers: []string{"Chunk", "Chars", "Sub-units", "Preview", "Note"},
				Rows:    rows,
				Aligns:  []columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
			}.render())
			for _, t := range unitTables {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read text from this file (\"-\" for stdin)")
	cmd.Flags().IntVar(&maxChunkChars, "max-chunk-chars", 0, "Maximum characters per chunk (default from config)")
	cmd.Flags().IntVar(&unitSize, "unit-size", 0, "Words or characters per subtitle unit (default from config)")
	cmd.Flags().StringVar(&language, "language", "", "Subtitle language code (default from config)")
	cmd.Flags().BoolVar(&showUnits, "subunits", false, "List the subtitle sub-units of every chunk")
	return cmd
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes-1]) + "…"
}
