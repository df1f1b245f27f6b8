// Package session holds the voice studio state shared by every screen: the
// voice profiles, the current selection, the synthesis settings and the
// generation history.
//
// All reads return copies and all writes go through the Session methods, so
// the profile invariants (never empty, default never removed, unique ids)
// cannot be bypassed.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/book-expert/voice-studio/internal/core"
)

var (
	// ErrProfileIDEmpty indicates that a profile was added without an id.
	ErrProfileIDEmpty = errors.New("profile id cannot be empty")
	// ErrProfileNameEmpty indicates that a profile was added without a name.
	ErrProfileNameEmpty = errors.New("profile name cannot be empty")
	// ErrDuplicateProfileID indicates that a profile with the same id already exists.
	ErrDuplicateProfileID = errors.New("profile id already exists")
	// ErrGenerationIDEmpty indicates that a generation record was added without an id.
	ErrGenerationIDEmpty = errors.New("generation id cannot be empty")
	// ErrGenerationTextEmpty indicates that a generation record has no source text.
	ErrGenerationTextEmpty = errors.New("generation text cannot be empty")
	// ErrDuplicateGenerationID indicates that a record with the same id is already in history.
	ErrDuplicateGenerationID = errors.New("generation id already exists")
)

// Entry names the part of the session that a Change describes.
type Entry string

// Session entries.
const (
	EntryProfiles  Entry = "profiles"
	EntryHistory   Entry = "history"
	EntrySettings  Entry = "settings"
	EntrySelection Entry = "selection"
)

// Change is delivered to hooks after a successful mutation. Only the field
// matching Entry is populated, and it holds a copy of the whole collection.
type Change struct {
	Entry    Entry
	Profiles []core.VoiceProfile
	History  []core.GeneratedAudio
	Settings core.VoiceSettings
	Selected *core.VoiceProfile
}

// Hook observes session changes. Hooks run synchronously in mutation order
// and must not mutate the session.
type Hook func(change Change)

// Session is the single point of truth for profiles, selection, settings and history.
type Session struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	turnDone *sync.Cond
	now      func() time.Time
	profiles []core.VoiceProfile
	selected *core.VoiceProfile
	settings core.VoiceSettings
	history  []core.GeneratedAudio
	hooks    []Hook

	// issued is guarded by mu, delivered by notifyMu.
	issued    uint64
	delivered uint64
}

type options struct {
	now      func() time.Time
	profiles []core.VoiceProfile
	history  []core.GeneratedAudio
}

// Option configures a Session.
type Option func(*options)

// WithClock overrides the clock used for the seed profile and missing timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithProfiles restores a previously persisted profile collection.
// An empty collection leaves the seed profile in place.
func WithProfiles(profiles []core.VoiceProfile) Option {
	return func(o *options) {
		o.profiles = profiles
	}
}

// WithHistory restores a previously persisted history, newest first.
func WithHistory(history []core.GeneratedAudio) Option {
	return func(o *options) {
		o.history = history
	}
}

// New creates a session. Without restored profiles it is seeded with the
// default profile, which is also selected.
func New(opts ...Option) *Session {
	cfg := options{
		now:      time.Now,
		profiles: nil,
		history:  nil,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	profiles := dedupeProfiles(cfg.profiles)
	if len(profiles) == 0 {
		profiles = []core.VoiceProfile{core.SeedProfile(cfg.now())}
	}

	s := &Session{
		mu:       sync.Mutex{},
		notifyMu: sync.Mutex{},
		turnDone: nil,
		now:      cfg.now,
		profiles: profiles,
		selected: nil,
		settings: core.DefaultVoiceSettings(),
		history:  slices.Clone(cfg.history),
		hooks:    nil,

		issued:    0,
		delivered: 0,
	}

	s.selected = s.fallbackLocked()
	s.turnDone = sync.NewCond(&s.notifyMu)

	return s
}

// OnMutate registers a hook called after every successful mutation.
func (s *Session) OnMutate(hook Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook)
}

// Profiles returns a copy of the profile collection in insertion order.
func (s *Session) Profiles() []core.VoiceProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.profiles)
}

// Profile returns the profile with the given id.
func (s *Session) Profile(id string) (core.VoiceProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.profileIndexLocked(id)
	if index < 0 {
		return core.VoiceProfile{}, false
	}

	return s.profiles[index], true
}

// SelectedVoice returns the selected profile, or nil when none is selected.
func (s *Session) SelectedVoice() *core.VoiceProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyProfile(s.selected)
}

// Settings returns the current synthesis settings.
func (s *Session) Settings() core.VoiceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings
}

// History returns a copy of the generation history, newest first.
func (s *Session) History() []core.GeneratedAudio {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.history)
}

// Generation returns the history record with the given id.
func (s *Session) Generation(id string) (core.GeneratedAudio, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.history {
		if record.ID == id {
			return record, true
		}
	}

	return core.GeneratedAudio{}, false
}

// SelectVoice sets the current profile pointer. Nil clears the selection.
// The profile is not required to belong to the collection.
func (s *Session) SelectVoice(profile *core.VoiceProfile) {
	s.mu.Lock()
	s.selected = copyProfile(profile)
	change := Change{Entry: EntrySelection, Selected: copyProfile(s.selected)}
	s.notifyAndUnlock(change)
}

// UpdateSettings merges patch into the current settings. Values are stored as given.
func (s *Session) UpdateSettings(patch core.SettingsPatch) core.VoiceSettings {
	s.mu.Lock()
	s.settings = patch.Apply(s.settings)
	updated := s.settings
	s.notifyAndUnlock(Change{Entry: EntrySettings, Settings: updated})

	return updated
}

// AddProfile appends profile to the collection without changing the selection.
// A zero CreatedAt is set to the current time.
func (s *Session) AddProfile(profile core.VoiceProfile) error {
	if profile.ID == "" {
		return ErrProfileIDEmpty
	}

	if profile.Name == "" {
		return ErrProfileNameEmpty
	}

	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = s.now()
	}

	s.mu.Lock()

	if s.profileIndexLocked(profile.ID) >= 0 {
		s.mu.Unlock()

		return fmt.Errorf("%w: '%s'", ErrDuplicateProfileID, profile.ID)
	}

	s.profiles = append(s.profiles, profile)
	s.notifyAndUnlock(s.profilesChangeLocked())

	return nil
}

// RemoveProfile deletes the profile with the given id. It refuses, and
// reports false, when the collection has a single member, when the target
// is the flagged default, or when the id is unknown. If the removed profile
// was selected, the selection moves to the default profile or, failing
// that, the first remaining profile.
func (s *Session) RemoveProfile(id string) bool {
	s.mu.Lock()

	index := s.profileIndexLocked(id)
	if len(s.profiles) <= 1 || index < 0 || s.profiles[index].IsDefault {
		s.mu.Unlock()

		return false
	}

	s.profiles = slices.Delete(s.profiles, index, index+1)

	if s.selected != nil && s.selected.ID == id {
		s.selected = s.fallbackLocked()
	}

	s.notifyAndUnlock(s.profilesChangeLocked())

	return true
}

// RemoveCustomProfiles deletes every profile not flagged default. When no
// profile carries the flag the first one is kept. It returns the number of
// profiles removed.
func (s *Session) RemoveCustomProfiles() int {
	s.mu.Lock()

	kept := make([]core.VoiceProfile, 0, 1)

	for _, profile := range s.profiles {
		if profile.IsDefault {
			kept = append(kept, profile)
		}
	}

	if len(kept) == 0 {
		kept = append(kept, s.profiles[0])
	}

	removed := len(s.profiles) - len(kept)
	if removed == 0 {
		s.mu.Unlock()

		return 0
	}

	s.profiles = kept

	if s.selected != nil && s.profileIndexLocked(s.selected.ID) < 0 {
		s.selected = s.fallbackLocked()
	}

	s.notifyAndUnlock(s.profilesChangeLocked())

	return removed
}

// AddGeneratedAudio inserts record at the front of the history.
func (s *Session) AddGeneratedAudio(record core.GeneratedAudio) error {
	if record.ID == "" {
		return ErrGenerationIDEmpty
	}

	if record.Text == "" {
		return ErrGenerationTextEmpty
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}

	s.mu.Lock()

	for _, existing := range s.history {
		if existing.ID == record.ID {
			s.mu.Unlock()

			return fmt.Errorf("%w: '%s'", ErrDuplicateGenerationID, record.ID)
		}
	}

	s.history = slices.Insert(s.history, 0, record)
	s.notifyAndUnlock(s.historyChangeLocked())

	return nil
}

// RemoveGeneratedAudio deletes the matching record and reports whether it existed.
func (s *Session) RemoveGeneratedAudio(id string) bool {
	s.mu.Lock()

	index := slices.IndexFunc(s.history, func(record core.GeneratedAudio) bool {
		return record.ID == id
	})
	if index < 0 {
		s.mu.Unlock()

		return false
	}

	s.history = slices.Delete(s.history, index, index+1)
	s.notifyAndUnlock(s.historyChangeLocked())

	return true
}

// ClearHistory deletes every generation record and returns how many were removed.
func (s *Session) ClearHistory() int {
	s.mu.Lock()

	removed := len(s.history)
	if removed == 0 {
		s.mu.Unlock()

		return 0
	}

	s.history = nil
	s.notifyAndUnlock(s.historyChangeLocked())

	return removed
}

// notifyAndUnlock takes a delivery turn, releases the state lock and runs
// the hooks once every earlier turn has been delivered. No goroutine waits
// for a turn while holding the state lock, so hooks may read the session.
func (s *Session) notifyAndUnlock(change Change) {
	hooks := slices.Clone(s.hooks)
	s.issued++
	turn := s.issued
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	for s.delivered+1 != turn {
		s.turnDone.Wait()
	}

	defer func() {
		s.delivered = turn
		s.turnDone.Broadcast()
	}()

	for _, hook := range hooks {
		hook(change)
	}
}

func (s *Session) profilesChangeLocked() Change {
	return Change{Entry: EntryProfiles, Profiles: slices.Clone(s.profiles)}
}

func (s *Session) historyChangeLocked() Change {
	return Change{Entry: EntryHistory, History: slices.Clone(s.history)}
}

func (s *Session) profileIndexLocked(id string) int {
	return slices.IndexFunc(s.profiles, func(profile core.VoiceProfile) bool {
		return profile.ID == id
	})
}

// fallbackLocked picks the default profile, else the first one.
func (s *Session) fallbackLocked() *core.VoiceProfile {
	for i := range s.profiles {
		if s.profiles[i].IsDefault {
			return copyProfile(&s.profiles[i])
		}
	}

	if len(s.profiles) == 0 {
		return nil
	}

	return copyProfile(&s.profiles[0])
}

func copyProfile(profile *core.VoiceProfile) *core.VoiceProfile {
	if profile == nil {
		return nil
	}

	duplicate := *profile

	return &duplicate
}

// dedupeProfiles keeps the first occurrence of each id.
func dedupeProfiles(profiles []core.VoiceProfile) []core.VoiceProfile {
	seen := make(map[string]struct{}, len(profiles))
	unique := make([]core.VoiceProfile, 0, len(profiles))

	for _, profile := range profiles {
		if _, ok := seen[profile.ID]; ok {
			continue
		}

		seen[profile.ID] = struct{}{}
		unique = append(unique, profile)
	}

	return unique
}
