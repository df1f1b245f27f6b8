package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/book-expert/voice-studio/internal/media"
	"github.com/book-expert/voice-studio/internal/objectstore"
	"github.com/book-expert/voice-studio/internal/session"
)

// handleListHistory handles GET /api/history?q=&voice=
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	history := s.deps.Session.History()
	profiles := s.deps.Session.Profiles()
	filtered := session.FilterHistory(history, query.Get("q"), query.Get("voice"))

	groups := session.GroupByDay(filtered, s.deps.Location)
	response := HistoryResponse{
		Total:    len(history),
		Filtered: len(filtered),
		Groups:   make([]DayGroupResponse, 0, len(groups)),
		Message:  session.EmptyHistoryMessage(len(history), len(filtered)),
	}

	for _, group := range groups {
		response.Groups = append(response.Groups, DayGroupResponse{
			Day:     group.Label,
			Records: toAudioResponses(group.Records, profiles),
		})
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleRemoveHistory handles DELETE /api/history/{id}
func (s *Server) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Session.RemoveGeneratedAudio(r.PathValue("id")) {
		s.writeError(w, http.StatusNotFound, "generation not found")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleClearHistory handles DELETE /api/history
func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, RemovedResponse{Removed: s.deps.Session.ClearHistory()})
}

// handleDownload handles GET /api/history/{id}/download. Locally stored
// audio is streamed as an attachment; anything else is a redirect.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	record, ok := s.deps.Session.Generation(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "generation not found")

		return
	}

	fileName := media.DownloadFileName(s.deps.Now())

	key, local := strings.CutPrefix(record.AudioURL, ObjectPrefix)
	if !local {
		w.Header().Set("Content-Disposition", attachment(fileName))
		http.Redirect(w, r, record.AudioURL, http.StatusFound)

		return
	}

	data, err := s.deps.Objects.Download(r.Context(), key)
	if err != nil {
		s.writeObjectError(w, key, err)

		return
	}

	w.Header().Set("Content-Type", media.ContentType(key))
	w.Header().Set("Content-Disposition", attachment(fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleObject handles GET /objects/{key}
func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	data, err := s.deps.Objects.Download(r.Context(), key)
	if err != nil {
		s.writeObjectError(w, key, err)

		return
	}

	w.Header().Set("Content-Type", media.ContentType(key))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeObjectError(w http.ResponseWriter, key string, err error) {
	if errors.Is(err, objectstore.ErrObjectNotFound) {
		s.writeError(w, http.StatusNotFound, "object not found")

		return
	}

	s.deps.Log.Error("Failed to download object '%s': %v", key, err)
	s.writeError(w, http.StatusInternalServerError, "failed to read object")
}

func attachment(fileName string) string {
	return fmt.Sprintf("attachment; filename=%q", media.SanitizeFilename(fileName))
}
