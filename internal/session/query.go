package session

import (
	"sort"
	"strings"
	"time"

	"github.com/book-expert/voice-studio/internal/core"
)

// Display strings used by the history screen.
const (
	AllVoices           = "all"
	UnknownVoiceLabel   = "Unknown Voice"
	msgNoHistory        = "You haven't generated any audio yet."
	msgNoMatchingResult = "No results match your search criteria."
	dayLabelLayout      = "2006-01-02"
)

// DayGroup is the set of history records created on one calendar day.
type DayGroup struct {
	Day     time.Time
	Label   string
	Records []core.GeneratedAudio
}

// FilterHistory keeps the records whose text contains query, compared
// case-insensitively, and whose voice matches voiceID. An empty voiceID or
// AllVoices matches every record. Order is preserved.
func FilterHistory(records []core.GeneratedAudio, query, voiceID string) []core.GeneratedAudio {
	needle := strings.ToLower(query)
	filtered := make([]core.GeneratedAudio, 0, len(records))

	for _, record := range records {
		if !strings.Contains(strings.ToLower(record.Text), needle) {
			continue
		}

		if voiceID != "" && voiceID != AllVoices && record.VoiceID != voiceID {
			continue
		}

		filtered = append(filtered, record)
	}

	return filtered
}

// GroupByDay buckets records by their calendar day in loc, newest day first.
// Records keep their relative order inside a bucket.
func GroupByDay(records []core.GeneratedAudio, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[string]int)
	groups := make([]DayGroup, 0)

	for _, record := range records {
		local := record.CreatedAt.In(loc)
		label := local.Format(dayLabelLayout)

		position, ok := index[label]
		if !ok {
			position = len(groups)
			index[label] = position
			groups = append(groups, DayGroup{
				Day:     time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
				Label:   label,
				Records: nil,
			})
		}

		groups[position].Records = append(groups[position].Records, record)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Day.After(groups[j].Day)
	})

	return groups
}

// VoiceLabel returns the name of the profile with voiceID, or UnknownVoiceLabel
// when the profile no longer exists.
func VoiceLabel(profiles []core.VoiceProfile, voiceID string) string {
	for _, profile := range profiles {
		if profile.ID == voiceID {
			return profile.Name
		}
	}

	return UnknownVoiceLabel
}

// EmptyHistoryMessage returns the placeholder shown when a filtered view is
// empty, or "" when there is something to show.
func EmptyHistoryMessage(total, filtered int) string {
	switch {
	case filtered > 0:
		return ""
	case total == 0:
		return msgNoHistory
	default:
		return msgNoMatchingResult
	}
}
