package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicereel/internal/notifications"
	"voicereel/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var (
		offline    bool
		testNotify bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, directories, and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			failures := 0

			section := func(title string, results []preflight.Result) {
				for _, line := range renderSectionHeader(title, colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
						failures++
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				fmt.Fprintln(out)
			}

			configLine := ctx.configPath
			if !ctx.configExists {
				configLine = "not found, using defaults"
			}
			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, configLine, colorize))
			voiceKind, voiceDetail := statusOK, cfg.Voice.VoiceID
			if strings.TrimSpace(cfg.Voice.VoiceID) == "" {
				voiceKind, voiceDetail = statusWarn, "not set (pass --voice to run)"
			}
			fmt.Fprintln(out, renderStatusLine("Voice", voiceKind, voiceDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("Model", statusInfo, cfg.Voice.ModelID, colorize))
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, yesNo(cfg.Notifications.NtfyTopic != ""), colorize))
			fmt.Fprintln(out)

			section("Environment", preflight.RunAll(cmd.Context(), cfg))

			if !offline {
				keys, err := cfg.APIKeys()
				if err != nil {
					section("Credentials", []preflight.Result{{Name: "Credentials", Detail: err.Error()}})
				} else {
					section("Credentials", preflight.CheckCredentials(cmd.Context(), newProviderClient(cfg), keys))
				}
			}

			if testNotify {
				result := preflight.Result{Name: "ntfy", Passed: true, Detail: "test notification sent"}
				if cfg.Notifications.NtfyTopic == "" {
					result = preflight.Result{Name: "ntfy", Detail: "notifications.ntfy_topic is not set"}
				} else if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					result = preflight.Result{Name: "ntfy", Detail: err.Error()}
				}
				section("Notifications", []preflight.Result{result})
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip provider credential checks")
	cmd.Flags().BoolVar(&testNotify, "test-notification", false, "Send a test notification")
	return cmd
}
