package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicereel/internal/config"
	"voicereel/internal/testsupport"
)

const (
	cliKeyA = "sk_cli_a_secret"
	cliKeyB = "sk_cli_b_secret"
)

// Stub media tools: ffprobe reports 2.5 seconds for every file, ffmpeg
// writes a placeholder to its final argument.
const (
	stubFFprobe = "#!/bin/sh\necho '{\"streams\":[{\"codec_type\":\"audio\"}],\"format\":{\"duration\":\"2.5\"}}'\n"
	stubFFmpeg  = "#!/bin/sh\nif [ \"$1\" = \"-version\" ]; then echo 'ffmpeg version stub'; exit 0; fi\nfor last; do :; done\nprintf 'joined' > \"$last\"\n"
)

type cliTestEnv struct {
	cfg        *config.Config
	provider   *testsupport.Provider
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ProviderOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, name := range []string{"VOICEREEL_API_KEYS", "ELEVENLABS_API_KEY", "VOICEREEL_VOICE_ID", "VOICEREEL_WORK_DIR", "VOICEREEL_LOG_LEVEL"} {
		t.Setenv(name, "")
	}

	if len(opts) == 0 {
		opts = []testsupport.ProviderOption{
			testsupport.WithQuota(cliKeyA, 5000),
			testsupport.WithQuota(cliKeyB, 5000),
		}
	}
	provider := testsupport.NewProvider(t, opts...)
	cfg := testsupport.NewConfig(t,
		testsupport.WithProvider(provider),
		testsupport.WithAPIKeys(cliKeyA, cliKeyB),
	)

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	cfg.Tools.FFprobe = writeStub(t, binDir, "ffprobe", stubFFprobe)
	cfg.Tools.FFmpeg = writeStub(t, binDir, "ffmpeg", stubFFmpeg)

	configPath := filepath.Join(homeDir, ".config", "voicereel", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		provider:   provider,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(
		"[paths]\nwork_dir = %q\nlog_dir = %q\n\n[provider]\nbase_url = %q\nrequests_per_minute = 0\n\n[credentials]\napi_keys = [%q, %q]\n\n[voice]\nvoice_id = %q\n\n[tools]\nffmpeg = %q\nffprobe = %q\n",
		cfg.Paths.WorkDir,
		cfg.Paths.LogDir,
		cfg.Provider.BaseURL,
		cfg.Credentials.APIKeys[0],
		cfg.Credentials.APIKeys[1],
		cfg.Voice.VoiceID,
		cfg.Tools.FFmpeg,
		cfg.Tools.FFprobe,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}
