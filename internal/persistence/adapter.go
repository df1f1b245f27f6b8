// Package persistence stores the voice profiles and the generation history
// in a key-value backend and restores them on start-up.
//
// Each collection lives under its own key and is always written whole.
// Settings and the current selection are never persisted.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/session"
)

// Persisted entry names.
const (
	KeyProfiles = "voiceProfiles"
	KeyHistory  = "generatedAudios"
)

const defaultWriteTimeout = 5 * time.Second

// Snapshot is what Load recovered. A nil collection means the entry was
// absent or unreadable and the session defaults apply.
type Snapshot struct {
	Profiles []core.VoiceProfile
	History  []core.GeneratedAudio
}

// Options converts the snapshot into session options.
func (s Snapshot) Options() []session.Option {
	return []session.Option{
		session.WithProfiles(s.Profiles),
		session.WithHistory(s.History),
	}
}

// Adapter moves session collections in and out of a KeyValueStore.
type Adapter struct {
	store        core.KeyValueStore
	log          *logger.Logger
	writeTimeout time.Duration
}

// New creates an Adapter over store.
func New(store core.KeyValueStore, log *logger.Logger) *Adapter {
	return &Adapter{
		store:        store,
		log:          log,
		writeTimeout: defaultWriteTimeout,
	}
}

// Load reads both entries. A missing, unreadable or malformed entry is
// logged and left nil; it never affects the other entry.
func (a *Adapter) Load(ctx context.Context) Snapshot {
	snapshot := Snapshot{Profiles: nil, History: nil}

	profileData, found := a.read(ctx, KeyProfiles)
	if found {
		profiles, err := DecodeProfiles(profileData)
		if err != nil {
			a.log.Error("Failed to parse saved voice profiles: %v", err)
		} else {
			snapshot.Profiles = profiles
		}
	}

	historyData, found := a.read(ctx, KeyHistory)
	if found {
		history, err := DecodeHistory(historyData)
		if err != nil {
			a.log.Error("Failed to parse saved generated audios: %v", err)
		} else {
			snapshot.History = history
		}
	}

	return snapshot
}

// SaveProfiles replaces the persisted profile entry.
func (a *Adapter) SaveProfiles(ctx context.Context, profiles []core.VoiceProfile) error {
	data, err := EncodeProfiles(profiles)
	if err != nil {
		return err
	}

	return a.write(ctx, KeyProfiles, data)
}

// SaveHistory replaces the persisted history entry.
func (a *Adapter) SaveHistory(ctx context.Context, history []core.GeneratedAudio) error {
	data, err := EncodeHistory(history)
	if err != nil {
		return err
	}

	return a.write(ctx, KeyHistory, data)
}

// Hook returns a session hook that writes the affected collection after
// every mutation. Write failures are logged and otherwise ignored.
func (a *Adapter) Hook() session.Hook {
	return func(change session.Change) {
		ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
		defer cancel()

		var err error

		switch change.Entry {
		case session.EntryProfiles:
			err = a.SaveProfiles(ctx, change.Profiles)
		case session.EntryHistory:
			err = a.SaveHistory(ctx, change.History)
		case session.EntrySettings, session.EntrySelection:
			return
		}

		if err != nil {
			a.log.Error("Failed to persist %s: %v", change.Entry, err)
		}
	}
}

func (a *Adapter) read(ctx context.Context, key string) ([]byte, bool) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, core.ErrKeyNotFound) {
			a.log.Error("Failed to read '%s' from storage: %v", key, err)
		}

		return nil, false
	}

	return data, true
}

func (a *Adapter) write(ctx context.Context, key string, data []byte) error {
	err := a.store.Set(ctx, key, data)
	if err != nil {
		return fmt.Errorf("failed to write '%s' to storage: %w", key, err)
	}

	return nil
}
