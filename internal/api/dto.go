package api

import (
	"time"

	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/session"
)

// ProfileResponse is the JSON form of a voice profile.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	SampleURL string    `json:"sampleUrl,omitempty"`
	IsDefault bool      `json:"isDefault,omitempty"`
}

// SettingsResponse is the JSON form of the voice settings.
type SettingsResponse struct {
	Pitch   float64 `json:"pitch"`
	Speed   float64 `json:"speed"`
	Emotion string  `json:"emotion"`
}

// AudioResponse is the JSON form of a generation record.
type AudioResponse struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	AudioURL  string           `json:"audioUrl"`
	VoiceID   string           `json:"voiceId"`
	VoiceName string           `json:"voiceName"`
	CreatedAt time.Time        `json:"createdAt"`
	Settings  SettingsResponse `json:"settings"`
}

// VoicesResponse lists the profiles and the current selection.
type VoicesResponse struct {
	Profiles   []ProfileResponse `json:"profiles"`
	SelectedID *string           `json:"selectedId"`
}

// UploadResponse describes a freshly uploaded voice sample.
type UploadResponse struct {
	Profile         ProfileResponse `json:"profile"`
	Size            string          `json:"size"`
	ExceedsGuidance bool            `json:"exceedsGuidance"`
}

// SelectRequest selects a profile by id. A null id clears the selection.
type SelectRequest struct {
	ID *string `json:"id"`
}

// SettingsPatchRequest carries the fields to change.
type SettingsPatchRequest struct {
	Pitch   *float64 `json:"pitch"`
	Speed   *float64 `json:"speed"`
	Emotion *string  `json:"emotion"`
}

// GenerateRequest is the Home screen submission.
type GenerateRequest struct {
	Text string `json:"text"`
}

// GenerateStatusResponse reports whether the submit control is disabled.
type GenerateStatusResponse struct {
	InFlight bool `json:"inFlight"`
}

// DayGroupResponse is one calendar day of the history screen.
type DayGroupResponse struct {
	Day     string          `json:"day"`
	Records []AudioResponse `json:"records"`
}

// HistoryResponse is the filtered, day-grouped history.
type HistoryResponse struct {
	Total    int                `json:"total"`
	Filtered int                `json:"filtered"`
	Groups   []DayGroupResponse `json:"groups"`
	Message  string             `json:"message,omitempty"`
}

// RemovedResponse reports how many entries a bulk clear removed.
type RemovedResponse struct {
	Removed int `json:"removed"`
}

// AccountResponse is the static demo account shown on the Settings screen.
type AccountResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	APIKey      string `json:"apiKey"`
	Notice      string `json:"notice"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EventMessage is one frame of the events feed.
type EventMessage struct {
	Entry    string            `json:"entry"`
	Profiles []ProfileResponse `json:"profiles,omitempty"`
	History  []AudioResponse   `json:"history,omitempty"`
	Settings *SettingsResponse `json:"settings,omitempty"`
	Selected *ProfileResponse  `json:"selected,omitempty"`
}

func toProfileResponse(profile core.VoiceProfile) ProfileResponse {
	return ProfileResponse{
		ID:        profile.ID,
		Name:      profile.Name,
		CreatedAt: profile.CreatedAt,
		SampleURL: profile.SampleURL,
		IsDefault: profile.IsDefault,
	}
}

func toProfileResponses(profiles []core.VoiceProfile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, toProfileResponse(profile))
	}

	return out
}

func toSettingsResponse(settings core.VoiceSettings) SettingsResponse {
	return SettingsResponse{
		Pitch:   settings.Pitch,
		Speed:   settings.Speed,
		Emotion: settings.Emotion.String(),
	}
}

func toAudioResponse(record core.GeneratedAudio, profiles []core.VoiceProfile) AudioResponse {
	return AudioResponse{
		ID:        record.ID,
		Text:      record.Text,
		AudioURL:  record.AudioURL,
		VoiceID:   record.VoiceID,
		VoiceName: session.VoiceLabel(profiles, record.VoiceID),
		CreatedAt: record.CreatedAt,
		Settings:  toSettingsResponse(record.Settings),
	}
}

func toAudioResponses(records []core.GeneratedAudio, profiles []core.VoiceProfile) []AudioResponse {
	out := make([]AudioResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toAudioResponse(record, profiles))
	}

	return out
}

func toEventMessage(change session.Change, profiles []core.VoiceProfile) EventMessage {
	message := EventMessage{Entry: string(change.Entry)}

	switch change.Entry {
	case session.EntryProfiles:
		message.Profiles = toProfileResponses(change.Profiles)
	case session.EntryHistory:
		message.History = toAudioResponses(change.History, profiles)
	case session.EntrySettings:
		settings := toSettingsResponse(change.Settings)
		message.Settings = &settings
	case session.EntrySelection:
		if change.Selected != nil {
			selected := toProfileResponse(*change.Selected)
			message.Selected = &selected
		}
	}

	return message
}
