package elevenlabs

// Documented voice setting ranges.
const (
	MinUnit  = 0.0
	MaxUnit  = 1.0
	MinSpeed = 0.5
	MaxSpeed = 2.0

	streamingLatencyOptimized = 4
	streamingLatencyOff       = 0
)

// VoiceSettings holds the optional acoustic parameters. A nil field is left
// out of the request so the provider applies the voice's stored default.
type VoiceSettings struct {
	Stability         *float64
	SimilarityBoost   *float64
	Style             *float64
	Speed             *float64
	OptimizeStreaming *bool
	SpeakerBoost      *bool
}

type voiceSettingsPayload struct {
	Stability                *float64 `json:"stability,omitempty"`
	SimilarityBoost          *float64 `json:"similarity_boost,omitempty"`
	Style                    *float64 `json:"style,omitempty"`
	Speed                    *float64 `json:"speed,omitempty"`
	OptimizeStreamingLatency *int     `json:"optimize_streaming_latency,omitempty"`
	UseSpeakerBoost          *bool    `json:"use_speaker_boost,omitempty"`
}

// Clamped returns a copy with every numeric setting forced into its documented range.
func (s VoiceSettings) Clamped() VoiceSettings {
	out := s
	out.Stability = clampPtr(s.Stability, MinUnit, MaxUnit)
	out.SimilarityBoost = clampPtr(s.SimilarityBoost, MinUnit, MaxUnit)
	out.Style = clampPtr(s.Style, MinUnit, MaxUnit)
	out.Speed = clampPtr(s.Speed, MinSpeed, MaxSpeed)
	return out
}

func (s VoiceSettings) payload() *voiceSettingsPayload {
	c := s.Clamped()
	p := &voiceSettingsPayload{
		Stability:       c.Stability,
		SimilarityBoost: c.SimilarityBoost,
		Style:           c.Style,
		Speed:           c.Speed,
		UseSpeakerBoost: c.SpeakerBoost,
	}
	if c.OptimizeStreaming != nil {
		latency := streamingLatencyOff
		if *c.OptimizeStreaming {
			latency = streamingLatencyOptimized
		}
		p.OptimizeStreamingLatency = &latency
	}
	if *p == (voiceSettingsPayload{}) {
		return nil
	}
	return p
}

func clampPtr(v *float64, lo, hi float64) *float64 {
	if v == nil {
		return nil
	}
	clamped := min(max(*v, lo), hi)
	return &clamped
}

// Float returns a pointer to v, for building VoiceSettings literals.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building VoiceSettings literals.
func Bool(v bool) *bool { return &v }
