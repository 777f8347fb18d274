package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"voicereel/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"VOICEREEL_API_KEYS", "ELEVENLABS_API_KEY", "VOICEREEL_VOICE_ID", "VOICEREEL_WORK_DIR", "VOICEREEL_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "voicereel", "output_audio")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Provider.BaseURL != "https://api.elevenlabs.io" {
		t.Fatalf("unexpected base url: %q", cfg.Provider.BaseURL)
	}
	if cfg.Voice.Stability != 0.3 || cfg.Voice.SimilarityBoost != 0.75 || cfg.Voice.Speed != 1.0 {
		t.Fatalf("unexpected voice defaults: %+v", cfg.Voice)
	}
	if cfg.Segmentation.MaxChunkChars != 10000 || cfg.Segmentation.SubtitleUnitSize != 5 {
		t.Fatalf("unexpected segmentation defaults: %+v", cfg.Segmentation)
	}
	if cfg.Voice.SpeakerBoost != nil {
		t.Fatal("expected speaker boost unset by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist", dir)
		}
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	keysFile := filepath.Join(tempHome, "keys.txt")
	if err := os.WriteFile(keysFile, []byte("# primary\nkey-b\n\nkey-c, key-a\n"), 0o600); err != nil {
		t.Fatalf("write keys file: %v", err)
	}

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
work_dir = "~/audio"

[credentials]
api_keys = ["key-a", "key-b"]
keys_file = "~/keys.txt"

[voice]
voice_id = "voice-123"
model_id = "eleven_multilingual_v2"
stability = 0.5
speaker_boost = true

[segmentation]
max_chunk_chars = 500
subtitle_language = "JA"
subtitle_mode = "Characters"

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempHome, "audio") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Voice.VoiceID != "voice-123" || cfg.Voice.Stability != 0.5 {
		t.Fatalf("unexpected voice: %+v", cfg.Voice)
	}
	if cfg.Voice.SpeakerBoost == nil || !*cfg.Voice.SpeakerBoost {
		t.Fatal("expected speaker boost enabled")
	}
	if cfg.Segmentation.SubtitleLanguage != "ja" || cfg.Segmentation.SubtitleMode != config.SubtitleModeCharacters {
		t.Fatalf("expected normalized segmentation, got %+v", cfg.Segmentation)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}

	keys, err := cfg.APIKeys()
	if err != nil {
		t.Fatalf("APIKeys failed: %v", err)
	}
	want := []string{"key-a", "key-b", "key-c"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected keys: got %v want %v", keys, want)
	}
}

func TestEnvOverridesAppendKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VOICEREEL_API_KEYS", "env-1\nenv-2")
	t.Setenv("ELEVENLABS_API_KEY", "env-3")
	t.Setenv("VOICEREEL_VOICE_ID", "voice-env")
	t.Setenv("VOICEREEL_LOG_LEVEL", "DEBUG")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[credentials]\napi_keys = [\"file-1\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	keys, err := cfg.APIKeys()
	if err != nil {
		t.Fatalf("APIKeys failed: %v", err)
	}
	if got := strings.Join(keys, ","); got != "file-1,env-1,env-2,env-3" {
		t.Fatalf("unexpected key order: %s", got)
	}
	if cfg.Voice.VoiceID != "voice-env" {
		t.Fatalf("expected voice id from env, got %q", cfg.Voice.VoiceID)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "chunk size", mutate: func(c *config.Config) { c.Segmentation.MaxChunkChars = 0 }, wantErr: "segmentation.max_chunk_chars"},
		{name: "unit size", mutate: func(c *config.Config) { c.Segmentation.SubtitleUnitSize = 0 }, wantErr: "segmentation.subtitle_unit_size"},
		{name: "stability", mutate: func(c *config.Config) { c.Voice.Stability = 1.5 }, wantErr: "voice.stability"},
		{name: "speed", mutate: func(c *config.Config) { c.Voice.Speed = 3 }, wantErr: "voice.speed"},
		{name: "model", mutate: func(c *config.Config) { c.Voice.ModelID = "eleven_bogus" }, wantErr: "voice.model_id"},
		{name: "mode", mutate: func(c *config.Config) { c.Segmentation.SubtitleMode = "syllables" }, wantErr: "segmentation.subtitle_mode"},
		{name: "file name", mutate: func(c *config.Config) { c.Output.SubtitleName = "../out.srt" }, wantErr: "output.subtitle_name"},
		{name: "log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "base url", mutate: func(c *config.Config) { c.Provider.BaseURL = "ftp://x" }, wantErr: "provider.base_url"},
		{name: "ntfy topic", mutate: func(c *config.Config) { c.Notifications.NtfyTopic = "voicereel" }, wantErr: "notifications.ntfy_topic"},
		{name: "ntfy timeout", mutate: func(c *config.Config) { c.Notifications.RequestTimeout = -1 }, wantErr: "notifications.request_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestParseKeyList(t *testing.T) {
	got := config.ParseKeyList("a\n # note\n\nb , c\n")
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("unexpected keys: %v", got)
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config should be valid TOML: %v", err)
	}
	if cfg.Segmentation.MaxChunkChars != config.Default().Segmentation.MaxChunkChars {
		t.Fatalf("sample chunk size drifted from defaults: %d", cfg.Segmentation.MaxChunkChars)
	}
	if cfg.Voice.ModelID != config.Default().Voice.ModelID {
		t.Fatalf("sample model drifted from defaults: %q", cfg.Voice.ModelID)
	}
}
