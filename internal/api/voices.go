package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/book-expert/voice-studio/internal/media"
	"github.com/book-expert/voice-studio/internal/voices"
)

// Multipart form fields of the upload request.
const (
	formFieldSample = "sample"
	formFieldName   = "name"
)

// handleListVoices handles GET /api/voices
func (s *Server) handleListVoices(w http.ResponseWriter, _ *http.Request) {
	response := VoicesResponse{
		Profiles:   toProfileResponses(s.deps.Session.Profiles()),
		SelectedID: nil,
	}

	if selected := s.deps.Session.SelectedVoice(); selected != nil {
		response.SelectedID = &selected.ID
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleUploadVoice handles POST /api/voices
func (s *Server) handleUploadVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile(formFieldSample)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing voice sample")

		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read voice sample")

		return
	}

	result, err := s.deps.Uploader.Upload(r.Context(), voices.Upload{
		FileName:    header.Filename,
		Name:        r.FormValue(formFieldName),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})

	switch {
	case errors.Is(err, voices.ErrUnsupportedSample):
		s.writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, voices.ErrSampleEmpty), errors.Is(err, voices.ErrNameEmpty):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.deps.Log.Error("Voice upload failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to store voice sample")
	default:
		s.writeJSON(w, http.StatusCreated, UploadResponse{
			Profile:         toProfileResponse(result.Profile),
			Size:            media.FormatFileSize(int64(len(data))),
			ExceedsGuidance: result.ExceedsGuidance,
		})
	}
}

// handleRemoveVoice handles DELETE /api/voices/{id}
func (s *Server) handleRemoveVoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, ok := s.deps.Session.Profile(id); !ok {
		s.writeError(w, http.StatusNotFound, "voice not found")

		return
	}

	if !s.deps.Session.RemoveProfile(id) {
		s.writeError(w, http.StatusConflict, "the default or last remaining voice cannot be deleted")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveCustomVoices handles DELETE /api/voices
func (s *Server) handleRemoveCustomVoices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, RemovedResponse{Removed: s.deps.Session.RemoveCustomProfiles()})
}

// handleSelectVoice handles PUT /api/voices/selected
func (s *Server) handleSelectVoice(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.ID == nil {
		s.deps.Session.SelectVoice(nil)
		w.WriteHeader(http.StatusNoContent)

		return
	}

	profile, ok := s.deps.Session.Profile(*req.ID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "voice not found")

		return
	}

	s.deps.Session.SelectVoice(&profile)
	w.WriteHeader(http.StatusNoContent)
}
