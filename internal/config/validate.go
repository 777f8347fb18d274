package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable. Credentials and voice_id are
// checked per run, since offline commands work without them.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateVoice(); err != nil {
		return err
	}
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProvider() error {
	if !strings.HasPrefix(c.Provider.BaseURL, "http://") && !strings.HasPrefix(c.Provider.BaseURL, "https://") {
		return fmt.Errorf("provider.base_url must be an http(s) URL, got %q", c.Provider.BaseURL)
	}
	if c.Provider.TimeoutSeconds < 0 {
		return errors.New("provider.timeout_seconds must be positive")
	}
	if c.Provider.RequestsPerMinute < 0 {
		return errors.New("provider.requests_per_minute must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateVoice() error {
	if !slices.Contains(SupportedModels, c.Voice.ModelID) {
		return fmt.Errorf("voice.model_id %q is not supported (choose one of %s)", c.Voice.ModelID, strings.Join(SupportedModels, ", "))
	}
	if err := ensureUnitRange(map[string]float64{
		"voice.stability":        c.Voice.Stability,
		"voice.similarity_boost": c.Voice.SimilarityBoost,
		"voice.style":            c.Voice.Style,
	}); err != nil {
		return err
	}
	if c.Voice.Speed < minSpeed || c.Voice.Speed > maxSpeed {
		return fmt.Errorf("voice.speed must be between %.1f and %.1f", minSpeed, maxSpeed)
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	if c.Segmentation.MaxChunkChars <= 0 {
		return errors.New("segmentation.max_chunk_chars must be positive")
	}
	if c.Segmentation.SubtitleUnitSize <= 0 || c.Segmentation.SubtitleUnitSize > maxSubtitleUnitSizeLimit {
		return fmt.Errorf("segmentation.subtitle_unit_size must be between 1 and %d", maxSubtitleUnitSizeLimit)
	}
	if c.Segmentation.DisplayLineChars < 0 || c.Segmentation.DisplayLineChars > maxDisplayLineChars {
		return fmt.Errorf("segmentation.display_line_chars must be between 0 and %d", maxDisplayLineChars)
	}
	switch c.Segmentation.SubtitleMode {
	case SubtitleModeAuto, SubtitleModeWords, SubtitleModeCharacters:
	default:
		return fmt.Errorf("segmentation.subtitle_mode: unsupported value %q", c.Segmentation.SubtitleMode)
	}
	return nil
}

func (c *Config) validateOutput() error {
	names := map[string]string{
		"output.clip_prefix":   c.Output.ClipPrefix,
		"output.combined_name": c.Output.CombinedName,
		"output.subtitle_name": c.Output.SubtitleName,
		"output.bundle_name":   c.Output.BundleName,
	}
	for key, value := range names {
		if strings.ContainsAny(value, `/\`) || value != filepath.Base(value) {
			return fmt.Errorf("%s must be a bare file name, got %q", key, value)
		}
	}
	if strings.HasPrefix(c.Output.CombinedName, c.Output.ClipPrefix) && strings.EqualFold(filepath.Ext(c.Output.CombinedName), ".mp3") {
		return errors.New("output.combined_name must not start with output.clip_prefix")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) topic URL, got %q", topic)
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensureUnitRange(values map[string]float64) error {
	for key, value := range values {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	return nil
}
