package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProvider()
	c.normalizeVoice()
	c.normalizeSegmentation()
	c.normalizeOutput()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Credentials.KeysFile = strings.TrimSpace(c.Credentials.KeysFile); c.Credentials.KeysFile != "" {
		if c.Credentials.KeysFile, err = expandPath(c.Credentials.KeysFile); err != nil {
			return fmt.Errorf("credentials.keys_file: %w", err)
		}
	}
	if c.Output.ExportDir = strings.TrimSpace(c.Output.ExportDir); c.Output.ExportDir != "" {
		if c.Output.ExportDir, err = expandPath(c.Output.ExportDir); err != nil {
			return fmt.Errorf("output.export_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeProvider() {
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = defaultProviderTimeout
	}
	c.Provider.OutputFormat = strings.TrimSpace(c.Provider.OutputFormat)
	c.Credentials.APIKeys = dedupe(c.Credentials.APIKeys)
}

func (c *Config) normalizeVoice() {
	c.Voice.VoiceID = strings.TrimSpace(c.Voice.VoiceID)
	c.Voice.ModelID = strings.TrimSpace(c.Voice.ModelID)
	if c.Voice.ModelID == "" {
		c.Voice.ModelID = defaultModelID
	}
	if c.Voice.Speed == 0 {
		c.Voice.Speed = defaultSpeed
	}
}

func (c *Config) normalizeSegmentation() {
	c.Segmentation.SubtitleLanguage = strings.ToLower(strings.TrimSpace(c.Segmentation.SubtitleLanguage))
	if c.Segmentation.SubtitleLanguage == "" {
		c.Segmentation.SubtitleLanguage = defaultSubtitleLanguage
	}
	c.Segmentation.SubtitleMode = strings.ToLower(strings.TrimSpace(c.Segmentation.SubtitleMode))
	if c.Segmentation.SubtitleMode == "" {
		c.Segmentation.SubtitleMode = defaultSubtitleMode
	}
}

func (c *Config) normalizeOutput() {
	defaults := map[*string]string{
		&c.Output.ClipPrefix:   defaultClipPrefix,
		&c.Output.CombinedName: defaultCombinedName,
		&c.Output.SubtitleName: defaultSubtitleName,
		&c.Output.BundleName:   defaultBundleName,
		&c.Tools.FFmpeg:        defaultFFmpeg,
		&c.Tools.FFprobe:       defaultFFprobe,
	}
	for field, fallback := range defaults {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			*field = fallback
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
