// Package generation implements the submit flow of the Home screen: it
// renders the current text with the selected voice and records the result.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/session"
	"github.com/google/uuid"
)

// AlertNoVoiceSelected is the blocking message shown when nothing is selected.
const AlertNoVoiceSelected = "Please select a voice first"

var (
	// ErrTextEmpty indicates that the submitted text is blank.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrNoVoiceSelected indicates that the session has no selected voice.
	ErrNoVoiceSelected = errors.New("no voice selected")
	// ErrGenerationInFlight indicates that a previous submission is still pending.
	ErrGenerationInFlight = errors.New("generation already in progress")
)

// Generator submits generation requests for one session. At most one
// request is pending at a time.
type Generator struct {
	session     *session.Session
	synthesizer core.Synthesizer
	log         *logger.Logger
	now         func() time.Time
	newID       func() string
	inFlight    atomic.Bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithIDSource overrides the record id generator.
func WithIDSource(newID func() string) Option {
	return func(g *Generator) {
		g.newID = newID
	}
}

// New creates a Generator that records results in sess.
func New(sess *session.Session, synthesizer core.Synthesizer, log *logger.Logger, opts ...Option) *Generator {
	generator := &Generator{
		session:     sess,
		synthesizer: synthesizer,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
		inFlight:    atomic.Bool{},
	}

	for _, opt := range opts {
		opt(generator)
	}

	return generator
}

// InFlight reports whether a submission is pending.
func (g *Generator) InFlight() bool {
	return g.inFlight.Load()
}

// Generate renders text with the selected voice and the current settings.
// On success the new record is prepended to the history and returned.
// Nothing is recorded on failure.
func (g *Generator) Generate(ctx context.Context, text string) (core.GeneratedAudio, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return core.GeneratedAudio{}, ErrTextEmpty
	}

	voice := g.session.SelectedVoice()
	if voice == nil {
		return core.GeneratedAudio{}, ErrNoVoiceSelected
	}

	if !g.inFlight.CompareAndSwap(false, true) {
		return core.GeneratedAudio{}, ErrGenerationInFlight
	}
	defer g.inFlight.Store(false)

	settings := g.session.Settings()

	result, err := g.synthesizer.Synthesize(ctx, core.SynthesisRequest{
		Text:     trimmed,
		Voice:    *voice,
		Settings: settings,
	})
	if err != nil {
		g.log.Error("Generation with voice %s failed: %v", voice.ID, err)

		return core.GeneratedAudio{}, fmt.Errorf("failed to synthesize: %w", err)
	}

	record := core.GeneratedAudio{
		ID:        g.newID(),
		Text:      trimmed,
		AudioURL:  result.AudioURL,
		VoiceID:   voice.ID,
		CreatedAt: g.now(),
		Settings:  settings,
	}

	err = g.session.AddGeneratedAudio(record)
	if err != nil {
		return core.GeneratedAudio{}, fmt.Errorf("failed to record generation: %w", err)
	}

	g.log.Info("Generated audio %s with voice %s", record.ID, voice.ID)

	return record, nil
}
