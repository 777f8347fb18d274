package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicereel/internal/credentials"
)

type creditRow struct {
	Position  int    `json:"position"`
	Label     string `json:"label"`
	Tier      string `json:"tier,omitempty"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetsAt  string `json:"resets_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newCreditsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Show the remaining character quota of every configured key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			keys, err := cfg.APIKeys()
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return fmt.Errorf("no API keys configured; set credentials.api_keys or ELEVENLABS_API_KEY")
			}

			client := newProviderClient(cfg)
			rows := make([]creditRow, 0, len(keys))
			total := 0
			for i, key := range keys {
				row := creditRow{Position: i + 1, Label: credentials.Label(i, key)}
				sub, err := client.Subscription(cmd.Context(), key)
				if err != nil {
					row.Error = err.Error()
					rows = append(rows, row)
					continue
				}
				row.Tier = sub.Tier
				row.Used = sub.CharacterCount
				row.Limit = sub.CharacterLimit
				row.Remaining = max(sub.Remaining(), 0)
				if reset := sub.NextReset(); !reset.IsZero() {
					row.ResetsAt = reset.Format(time.RFC3339)
				}
				total += row.Remaining
				rows = append(rows, row)
			}

			if jsonOutput {
				return writeJSON(cmd, rows)
			}

			tableRows := make([][]string, 0, len(rows))
			for _, r := range rows {
				if r.Error != "" {
					tableRows = append(tableRows, []string{r.Label, "error", "", "", "", r.Error})
					continue
				}
				resets := ""
				if r.ResetsAt != "" {
					if t, err := time.Parse(time.RFC3339, r.ResetsAt); err == nil {
						resets = humanize.Time(t)
					}
				}
				tableRows = append(tableRows, []string{
					r.Label,
					r.Tier,
					humanize.Comma(int64(r.Used)),
					humanize.Comma(int64(r.Limit)),
					humanize.Comma(int64(r.Remaining)),
					resets,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tableSpec{
				Headers: []string{"Credential", "Tier", "Used", "Limit", "Remaining", "Resets"},
				Rows:    tableRows,
				Footer:  []string{"Total", "", "", "", humanize.Comma(int64(total)), ""},
				Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			}.render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print quotas as JSON")
	return cmd
}
