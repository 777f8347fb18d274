package config

const (
	defaultWorkDir           = "~/.local/share/voicereel/output_audio"
	defaultLogDir            = "~/.local/share/voicereel/logs"
	defaultProviderBaseURL   = "https://api.elevenlabs.io"
	defaultProviderTimeout   = 120
	defaultOutputFormat      = "mp3_44100_128"
	defaultModelID           = "eleven_flash_v2_5"
	defaultStability         = 0.3
	defaultSimilarityBoost   = 0.75
	defaultStyle             = 0.0
	defaultSpeed             = 1.0
	defaultMaxChunkChars     = 10000
	defaultSubtitleUnitSize  = 5
	defaultSubtitleLanguage  = "en"
	defaultSubtitleMode      = SubtitleModeAuto
	defaultClipPrefix        = "seg"
	defaultCombinedName      = "full.mp3"
	defaultSubtitleName      = "output.srt"
	defaultBundleName        = "voicereel.zip"
	defaultFFmpeg            = "ffmpeg"
	defaultFFprobe           = "ffprobe"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultNotifyTimeout     = 10
	minSpeed                 = 0.5
	maxSpeed                 = 2.0
	maxDisplayLineChars      = 200
	maxSubtitleUnitSizeLimit = 1000
)

// Subtitle grouping modes.
const (
	SubtitleModeAuto       = "auto"
	SubtitleModeWords      = "words"
	SubtitleModeCharacters = "characters"
)

// SupportedModels lists the synthesis models accepted by voice.model_id.
var SupportedModels = []string{
	"eleven_multilingual_v2",
	"eleven_flash_v2_5",
	"eleven_turbo_v2_5",
	"eleven_turbo_v2",
	"eleven_v3",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Provider: Provider{
			BaseURL:        defaultProviderBaseURL,
			TimeoutSeconds: defaultProviderTimeout,
			OutputFormat:   defaultOutputFormat,
		},
		Voice: Voice{
			ModelID:         defaultModelID,
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarityBoost,
			Style:           defaultStyle,
			Speed:           defaultSpeed,
		},
		Segmentation: Segmentation{
			MaxChunkChars:    defaultMaxChunkChars,
			SubtitleUnitSize: defaultSubtitleUnitSize,
			SubtitleLanguage: defaultSubtitleLanguage,
			SubtitleMode:     defaultSubtitleMode,
		},
		Output: Output{
			ClipPrefix:   defaultClipPrefix,
			CombinedName: defaultCombinedName,
			SubtitleName: defaultSubtitleName,
			BundleName:   defaultBundleName,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
