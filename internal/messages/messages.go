// Package messages defines the NATS payloads exchanged between the studio
// and a remote synthesis worker.
package messages

import (
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/google/uuid"
)

// GenerateRequestEvent asks a worker to render one utterance.
type GenerateRequestEvent struct {
	Header    events.EventHeader `json:"header"`
	Text      string             `json:"text"`
	VoiceID   string             `json:"voice_id"`
	VoiceName string             `json:"voice_name"`
	SampleURL string             `json:"sample_url,omitempty"`
	Pitch     float64            `json:"pitch"`
	Speed     float64            `json:"speed"`
	Emotion   string             `json:"emotion"`
}

// GenerateReplyEvent is the worker's answer. Error is set instead of AudioURL on failure.
type GenerateReplyEvent struct {
	Header   events.EventHeader `json:"header"`
	AudioURL string             `json:"audio_url,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// NewHeader creates a header for a fresh workflow.
func NewHeader(now time.Time) events.EventHeader {
	return events.EventHeader{
		Timestamp:  now,
		WorkflowID: uuid.NewString(),
		EventID:    uuid.NewString(),
		UserID:     "",
		TenantID:   "",
	}
}

// NewGenerateRequest builds the request event for req.
func NewGenerateRequest(req core.SynthesisRequest, now time.Time) GenerateRequestEvent {
	return GenerateRequestEvent{
		Header:    NewHeader(now),
		Text:      req.Text,
		VoiceID:   req.Voice.ID,
		VoiceName: req.Voice.Name,
		SampleURL: req.Voice.SampleURL,
		Pitch:     req.Settings.Pitch,
		Speed:     req.Settings.Speed,
		Emotion:   req.Settings.Emotion.String(),
	}
}

// SynthesisRequest converts the event back into the domain request.
func (e GenerateRequestEvent) SynthesisRequest() core.SynthesisRequest {
	return core.SynthesisRequest{
		Text: e.Text,
		Voice: core.VoiceProfile{
			ID:        e.VoiceID,
			Name:      e.VoiceName,
			CreatedAt: time.Time{},
			SampleURL: e.SampleURL,
			IsDefault: false,
		},
		Settings: core.VoiceSettings{
			Pitch:   e.Pitch,
			Speed:   e.Speed,
			Emotion: core.Emotion(e.Emotion),
		},
	}
}
