package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/book-expert/voice-studio/internal/generation"
)

// handleGenerate handles POST /api/generate. The request waits for the
// synthesizer and answers with the new history record.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	record, err := s.deps.Generator.Generate(r.Context(), req.Text)

	switch {
	case errors.Is(err, generation.ErrTextEmpty):
		s.metrics.observeGeneration(outcomeRejected, 0)
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, generation.ErrNoVoiceSelected):
		s.metrics.observeGeneration(outcomeRejected, 0)
		s.writeError(w, http.StatusUnprocessableEntity, generation.AlertNoVoiceSelected)
	case errors.Is(err, generation.ErrGenerationInFlight):
		s.metrics.observeGeneration(outcomeRejected, 0)
		s.writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.metrics.observeGeneration(outcomeError, time.Since(start))
		s.writeError(w, http.StatusBadGateway, "audio generation failed")
	default:
		s.metrics.observeGeneration(outcomeSuccess, time.Since(start))
		s.writeJSON(w, http.StatusCreated, toAudioResponse(record, s.deps.Session.Profiles()))
	}
}

// handleGenerateStatus handles GET /api/generate
func (s *Server) handleGenerateStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, GenerateStatusResponse{InFlight: s.deps.Generator.InFlight()})
}
