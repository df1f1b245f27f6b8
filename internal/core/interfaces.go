// Package core defines the domain types and the ports of the voice studio.
package core

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a KeyValueStore when the key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore defines the interface for a whole-value key-value store.
// Writes replace the stored value entirely.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	// Delete removes the object under key. A missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// SynthesisRequest holds everything needed to render one utterance.
type SynthesisRequest struct {
	Text     string
	Voice    VoiceProfile
	Settings VoiceSettings
}

// SynthesisResult is the outcome of a successful synthesis.
type SynthesisResult struct {
	AudioURL string
}

// Synthesizer defines the interface for a text-to-speech backend.
// Implementations may block for as long as the backend takes; callers bound
// the wait with ctx.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
}
