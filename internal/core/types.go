package core

import "time"

// Emotion is the expressive style applied during synthesis.
type Emotion string

// Supported emotions.
const (
	EmotionNeutral Emotion = "neutral"
	EmotionHappy   Emotion = "happy"
	EmotionSad     Emotion = "sad"
	EmotionAngry   Emotion = "angry"
	EmotionExcited Emotion = "excited"
)

// Emotions lists every supported emotion in display order.
var Emotions = []Emotion{EmotionNeutral, EmotionHappy, EmotionSad, EmotionAngry, EmotionExcited}

func (e Emotion) String() string {
	return string(e)
}

// Valid reports whether e is one of the supported emotions.
func (e Emotion) Valid() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}

	return false
}

// Ranges accepted by the settings controls. The session does not enforce them.
const (
	MinPitch     = 0.5
	MaxPitch     = 2.0
	MinSpeed     = 0.5
	MaxSpeed     = 2.0
	DefaultPitch = 1.0
	DefaultSpeed = 1.0
)

// Seed profile values.
const (
	DefaultProfileID   = "1"
	DefaultProfileName = "Default Voice"
)

// VoiceProfile is a named voice that can be selected for generation.
type VoiceProfile struct {
	ID        string
	Name      string
	CreatedAt time.Time
	SampleURL string
	IsDefault bool
}

// VoiceSettings holds the synthesis parameters.
type VoiceSettings struct {
	Pitch   float64
	Speed   float64
	Emotion Emotion
}

// DefaultVoiceSettings returns pitch 1.0, speed 1.0, neutral.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Pitch:   DefaultPitch,
		Speed:   DefaultSpeed,
		Emotion: EmotionNeutral,
	}
}

// SettingsPatch is a partial VoiceSettings. Nil fields are left untouched on merge.
type SettingsPatch struct {
	Pitch   *float64
	Speed   *float64
	Emotion *Emotion
}

// Apply returns s with every non-nil field of p merged in.
func (p SettingsPatch) Apply(s VoiceSettings) VoiceSettings {
	if p.Pitch != nil {
		s.Pitch = *p.Pitch
	}

	if p.Speed != nil {
		s.Speed = *p.Speed
	}

	if p.Emotion != nil {
		s.Emotion = *p.Emotion
	}

	return s
}

// GeneratedAudio is one entry of the generation history.
// Settings is a snapshot taken at generation time.
type GeneratedAudio struct {
	ID        string
	Text      string
	AudioURL  string
	VoiceID   string
	CreatedAt time.Time
	Settings  VoiceSettings
}

// SeedProfile returns the default profile present on first run.
func SeedProfile(now time.Time) VoiceProfile {
	return VoiceProfile{
		ID:        DefaultProfileID,
		Name:      DefaultProfileName,
		CreatedAt: now,
		SampleURL: "",
		IsDefault: true,
	}
}
