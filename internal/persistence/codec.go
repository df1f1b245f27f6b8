package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/voice-studio/internal/core"
)

// timestampLayout is the wire layout of every persisted timestamp.
const timestampLayout = time.RFC3339Nano

type profileRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	SampleURL string `json:"sampleUrl,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

type settingsRecord struct {
	Pitch   float64 `json:"pitch"`
	Speed   float64 `json:"speed"`
	Emotion string  `json:"emotion"`
}

type audioRecord struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	AudioURL  string         `json:"audioUrl"`
	VoiceID   string         `json:"voiceId"`
	CreatedAt string         `json:"createdAt"`
	Settings  settingsRecord `json:"settings"`
}

// EncodeProfiles serializes the profile collection to its persisted form.
func EncodeProfiles(profiles []core.VoiceProfile) ([]byte, error) {
	records := make([]profileRecord, 0, len(profiles))

	for _, profile := range profiles {
		records = append(records, profileRecord{
			ID:        profile.ID,
			Name:      profile.Name,
			CreatedAt: profile.CreatedAt.Format(timestampLayout),
			SampleURL: profile.SampleURL,
			IsDefault: profile.IsDefault,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal voice profiles: %w", err)
	}

	return data, nil
}

// DecodeProfiles parses a persisted profile collection and re-hydrates its timestamps.
func DecodeProfiles(data []byte) ([]core.VoiceProfile, error) {
	var records []profileRecord

	err := json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal voice profiles: %w", err)
	}

	profiles := make([]core.VoiceProfile, 0, len(records))

	for _, record := range records {
		createdAt, parseErr := parseTimestamp(record.CreatedAt)
		if parseErr != nil {
			return nil, fmt.Errorf("voice profile '%s': %w", record.ID, parseErr)
		}

		profiles = append(profiles, core.VoiceProfile{
			ID:        record.ID,
			Name:      record.Name,
			CreatedAt: createdAt,
			SampleURL: record.SampleURL,
			IsDefault: record.IsDefault,
		})
	}

	return profiles, nil
}

// EncodeHistory serializes the generation history to its persisted form.
func EncodeHistory(history []core.GeneratedAudio) ([]byte, error) {
	records := make([]audioRecord, 0, len(history))

	for _, audio := range history {
		records = append(records, audioRecord{
			ID:        audio.ID,
			Text:      audio.Text,
			AudioURL:  audio.AudioURL,
			VoiceID:   audio.VoiceID,
			CreatedAt: audio.CreatedAt.Format(timestampLayout),
			Settings: settingsRecord{
				Pitch:   audio.Settings.Pitch,
				Speed:   audio.Settings.Speed,
				Emotion: string(audio.Settings.Emotion),
			},
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated audios: %w", err)
	}

	return data, nil
}

// DecodeHistory parses a persisted generation history and re-hydrates its timestamps.
func DecodeHistory(data []byte) ([]core.GeneratedAudio, error) {
	var records []audioRecord

	err := json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal generated audios: %w", err)
	}

	history := make([]core.GeneratedAudio, 0, len(records))

	for _, record := range records {
		createdAt, parseErr := parseTimestamp(record.CreatedAt)
		if parseErr != nil {
			return nil, fmt.Errorf("generated audio '%s': %w", record.ID, parseErr)
		}

		history = append(history, core.GeneratedAudio{
			ID:        record.ID,
			Text:      record.Text,
			AudioURL:  record.AudioURL,
			VoiceID:   record.VoiceID,
			CreatedAt: createdAt,
			Settings: core.VoiceSettings{
				Pitch:   record.Settings.Pitch,
				Speed:   record.Settings.Speed,
				Emotion: core.Emotion(record.Settings.Emotion),
			},
		})
	}

	return history, nil
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}

	return parsed, nil
}
