package synth

import (
	"context"
	"fmt"

	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/text"
	"github.com/google/uuid"
)

const generatedAudioExt = ".wav"

// HTTPSynthesizer renders speech through a TTS HTTP service and keeps the
// resulting WAV in an object store. The returned reference is urlPrefix
// followed by the object key.
type HTTPSynthesizer struct {
	client     *HTTPClient
	store      core.ObjectStore
	normalizer *text.Normalizer
	urlPrefix  string
}

// NewHTTPSynthesizer wires a client to the object store that receives its output.
func NewHTTPSynthesizer(client *HTTPClient, store core.ObjectStore, urlPrefix string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		client:     client,
		store:      store,
		normalizer: text.NewNormalizer(),
		urlPrefix:  urlPrefix,
	}
}

// Synthesize normalizes the text, requests speech and stores the audio.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, req core.SynthesisRequest) (core.SynthesisResult, error) {
	normalized := s.normalizer.Normalize(req.Text)
	if normalized == "" {
		return core.SynthesisResult{}, ErrTextEmpty
	}

	audioData, err := s.client.GenerateSpeech(ctx, SpeechRequest{
		Text:           normalized,
		SpeakerRefPath: req.Voice.SampleURL,
		Language:       defaultLanguage,
		Pitch:          req.Settings.Pitch,
		Speed:          req.Settings.Speed,
		Emotion:        string(req.Settings.Emotion),
	})
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf("failed to generate speech: %w", err)
	}

	audioKey := uuid.NewString() + generatedAudioExt

	err = s.store.Upload(ctx, audioKey, audioData)
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	return core.SynthesisResult{AudioURL: s.urlPrefix + audioKey}, nil
}
