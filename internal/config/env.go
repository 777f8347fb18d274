package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type envOverrides struct {
	APIKeys   string `env:"VOICEREEL_API_KEYS"`
	SingleKey string `env:"ELEVENLABS_API_KEY"`
	VoiceID   string `env:"VOICEREEL_VOICE_ID"`
	WorkDir   string `env:"VOICEREEL_WORK_DIR"`
	LogLevel  string `env:"VOICEREEL_LOG_LEVEL"`
}

// applyEnv layers environment overrides on top of file values. Keys from the
// environment are appended after configured keys so file order is preserved.
func (c *Config) applyEnv() error {
	overrides, err := env.ParseAs[envOverrides]()
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if keys := ParseKeyList(overrides.APIKeys); len(keys) > 0 {
		c.Credentials.APIKeys = append(c.Credentials.APIKeys, keys...)
	}
	if key := strings.TrimSpace(overrides.SingleKey); key != "" {
		c.Credentials.APIKeys = append(c.Credentials.APIKeys, key)
	}
	if v := strings.TrimSpace(overrides.VoiceID); v != "" {
		c.Voice.VoiceID = v
	}
	if v := strings.TrimSpace(overrides.WorkDir); v != "" {
		c.Paths.WorkDir = v
	}
	if v := strings.TrimSpace(overrides.LogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}
