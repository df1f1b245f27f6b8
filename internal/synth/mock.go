// Package synth provides the synthesis backends behind core.Synthesizer.
package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/voice-studio/internal/core"
)

// Mock defaults.
const (
	DefaultMockDelay    = 2 * time.Second
	DefaultMockAudioURL = "https://example.com/audio.mp3"
)

// Mock stands in for a real engine: it waits a fixed delay and returns the
// same audio reference for every request.
type Mock struct {
	delay    time.Duration
	audioURL string
}

// NewMock creates a Mock. A zero delay or empty URL selects the defaults.
func NewMock(delay time.Duration, audioURL string) *Mock {
	if delay <= 0 {
		delay = DefaultMockDelay
	}

	if audioURL == "" {
		audioURL = DefaultMockAudioURL
	}

	return &Mock{
		delay:    delay,
		audioURL: audioURL,
	}
}

// Synthesize waits for the configured delay and returns the fixed reference.
func (m *Mock) Synthesize(ctx context.Context, _ core.SynthesisRequest) (core.SynthesisResult, error) {
	timer := time.NewTimer(m.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return core.SynthesisResult{}, fmt.Errorf("mock synthesis cancelled: %w", ctx.Err())
	case <-timer.C:
		return core.SynthesisResult{AudioURL: m.audioURL}, nil
	}
}
