package session_test

import (
	"testing"
	"time"

	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyFixture() []core.GeneratedAudio {
	day1 := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)

	return []core.GeneratedAudio{
		{ID: "4", Text: "Good evening", VoiceID: "2", CreatedAt: day2.Add(time.Hour)},
		{ID: "3", Text: "hello again", VoiceID: "1", CreatedAt: day2},
		{ID: "2", Text: "Second HELLO", VoiceID: "2", CreatedAt: day1.Add(time.Minute)},
		{ID: "1", Text: "First", VoiceID: "1", CreatedAt: day1},
	}
}

func ids(records []core.GeneratedAudio) []string {
	result := make([]string, 0, len(records))
	for _, r := range records {
		result = append(result, r.ID)
	}

	return result
}

func TestFilterHistory(t *testing.T) {
	t.Parallel()

	records := historyFixture()

	tests := []struct {
		name    string
		query   string
		voiceID string
		want    []string
	}{
		{name: "no filter", query: "", voiceID: session.AllVoices, want: []string{"4", "3", "2", "1"}},
		{name: "empty voice means all", query: "", voiceID: "", want: []string{"4", "3", "2", "1"}},
		{name: "case insensitive text", query: "hello", voiceID: session.AllVoices, want: []string{"3", "2"}},
		{name: "voice only", query: "", voiceID: "2", want: []string{"4", "2"}},
		{name: "text and voice", query: "HELLO", voiceID: "1", want: []string{"3"}},
		{name: "no match", query: "absent", voiceID: session.AllVoices, want: []string{}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := session.FilterHistory(records, testCase.query, testCase.voiceID)
			assert.Equal(t, testCase.want, ids(got))
		})
	}
}

func TestGroupByDay_NewestDayFirst(t *testing.T) {
	t.Parallel()

	groups := session.GroupByDay(historyFixture(), time.UTC)

	require.Len(t, groups, 2)
	assert.Equal(t, "2026-03-13", groups[0].Label)
	assert.Equal(t, []string{"4", "3"}, ids(groups[0].Records))
	assert.Equal(t, "2026-03-12", groups[1].Label)
	assert.Equal(t, []string{"2", "1"}, ids(groups[1].Records))
}

func TestGroupByDay_UsesLocation(t *testing.T) {
	t.Parallel()

	plusTen := time.FixedZone("UTC+10", 10*60*60)
	records := []core.GeneratedAudio{
		{ID: "late", CreatedAt: time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)},
		{ID: "early", CreatedAt: time.Date(2026, 3, 12, 1, 0, 0, 0, time.UTC)},
	}

	groups := session.GroupByDay(records, plusTen)

	require.Len(t, groups, 2)
	assert.Equal(t, "2026-03-13", groups[0].Label)
	assert.Equal(t, "2026-03-12", groups[1].Label)
}

func TestVoiceLabel(t *testing.T) {
	t.Parallel()

	profiles := []core.VoiceProfile{core.SeedProfile(fixedNow), profile("2", "Clone A")}

	assert.Equal(t, "Clone A", session.VoiceLabel(profiles, "2"))
	assert.Equal(t, "Unknown Voice", session.VoiceLabel(profiles, "deleted"))
}

func TestEmptyHistoryMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "You haven't generated any audio yet.", session.EmptyHistoryMessage(0, 0))
	assert.Equal(t, "No results match your search criteria.", session.EmptyHistoryMessage(3, 0))
	assert.Empty(t, session.EmptyHistoryMessage(3, 1))
}
