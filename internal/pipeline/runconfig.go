package pipeline

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"voicereel/internal/config"
	"voicereel/internal/services"
	"voicereel/internal/services/elevenlabs"
	"voicereel/internal/textseg"
)

// RunConfig is the validated input of a single run.
type RunConfig struct {
	APIKeys  []string
	VoiceID  string
	ModelID  string
	Text     string
	Settings elevenlabs.VoiceSettings

	MaxChunkChars    int
	SubtitleUnitSize int
	SubtitleMode     textseg.Mode
	DisplayLineChars int

	WorkDir      string
	ClipPrefix   string
	CombinedName string
	SubtitleName string
	Bundle       bool
	BundleName   string
	ExportDir    string
}

// FromConfig builds a RunConfig for text from the loaded configuration.
func FromConfig(cfg *config.Config, text string) (RunConfig, error) {
	if cfg == nil {
		return RunConfig{}, services.Wrap(services.ErrConfiguration, "pipeline", "configure", "config is nil", nil)
	}
	keys, err := cfg.APIKeys()
	if err != nil {
		return RunConfig{}, services.Wrap(services.ErrConfiguration, "pipeline", "load credentials", "", err)
	}
	return RunConfig{
		APIKeys: keys,
		VoiceID: cfg.Voice.VoiceID,
		ModelID: cfg.Voice.ModelID,
		Text:    text,
		Settings: elevenlabs.VoiceSettings{
			Stability:         elevenlabs.Float(cfg.Voice.Stability),
			SimilarityBoost:   elevenlabs.Float(cfg.Voice.SimilarityBoost),
			Style:             elevenlabs.Float(cfg.Voice.Style),
			Speed:             elevenlabs.Float(cfg.Voice.Speed),
			OptimizeStreaming: elevenlabs.Bool(cfg.Voice.OptimizeStreaming),
			SpeakerBoost:      cfg.Voice.SpeakerBoost,
		},
		MaxChunkChars:    cfg.Segmentation.MaxChunkChars,
		SubtitleUnitSize: cfg.Segmentation.SubtitleUnitSize,
		SubtitleMode:     textseg.ModeFor(cfg.Segmentation.SubtitleLanguage, cfg.Segmentation.SubtitleMode),
		DisplayLineChars: cfg.Segmentation.DisplayLineChars,
		WorkDir:          cfg.Paths.WorkDir,
		ClipPrefix:       cfg.Output.ClipPrefix,
		CombinedName:     cfg.Output.CombinedName,
		SubtitleName:     cfg.Output.SubtitleName,
		Bundle:           cfg.Output.Bundle,
		BundleName:       cfg.Output.BundleName,
		ExportDir:        cfg.Output.ExportDir,
	}, nil
}

// Keys returns the non-blank API keys in configured order.
func (rc RunConfig) Keys() []string {
	keys := make([]string, 0, len(rc.APIKeys))
	for _, k := range rc.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate rejects a run before any network call is made.
func (rc RunConfig) Validate() error {
	invalid := func(msg string) error {
		return services.Wrap(services.ErrValidation, "validate", "run config", msg, nil)
	}
	if len(rc.Keys()) == 0 {
		return invalid("at least one API key is required")
	}
	if strings.TrimSpace(rc.VoiceID) == "" {
		return invalid("voice id is required")
	}
	if strings.TrimSpace(rc.Text) == "" {
		return invalid("input text is empty")
	}
	if rc.ModelID != "" && !slices.Contains(config.SupportedModels, rc.ModelID) {
		return invalid(fmt.Sprintf("model %q is not supported", rc.ModelID))
	}
	if rc.MaxChunkChars <= 0 {
		return invalid("max chunk characters must be positive")
	}
	if rc.SubtitleUnitSize <= 0 {
		return invalid("subtitle unit size must be positive")
	}
	if rc.DisplayLineChars < 0 {
		return invalid("display line width cannot be negative")
	}
	if err := validateSettings(rc.Settings); err != nil {
		return invalid(err.Error())
	}
	if strings.TrimSpace(rc.WorkDir) == "" {
		return invalid("working directory is required")
	}
	if strings.ContainsAny(rc.ClipPrefix, `/\`) {
		return invalid(fmt.Sprintf("clip prefix %q must not contain path separators", rc.ClipPrefix))
	}
	names := map[string]string{"combined track name": rc.CombinedName, "subtitle name": rc.SubtitleName}
	if rc.Bundle {
		names["bundle name"] = rc.BundleName
	}
	for label, name := range names {
		if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
			return invalid(fmt.Sprintf("%s %q must be a bare file name", label, name))
		}
	}
	return nil
}

func validateSettings(s elevenlabs.VoiceSettings) error {
	unit := map[string]*float64{"stability": s.Stability, "similarity boost": s.SimilarityBoost, "style": s.Style}
	for name, v := range unit {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s %.2f is outside 0..1", name, *v)
		}
	}
	if s.Speed != nil && (*s.Speed < 0.5 || *s.Speed > 2) {
		return fmt.Errorf("speed %.2f is outside 0.5..2", *s.Speed)
	}
	return nil
}

func (rc RunConfig) request(text string) elevenlabs.Request {
	return elevenlabs.Request{
		Text:     text,
		VoiceID:  strings.TrimSpace(rc.VoiceID),
		ModelID:  strings.TrimSpace(rc.ModelID),
		Settings: rc.Settings,
	}
}
