package api

import (
	"fmt"
	"net/http"

	"github.com/book-expert/voice-studio/internal/core"
)

// Demo account shown on the Settings screen.
const (
	demoEmail  = "user@example.com"
	maskedKey  = "••••••••••••••••••••••••••••••"
	demoNotice = "This is a demo application. API keys cannot be managed here."
)

// handleGetSettings handles GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, toSettingsResponse(s.deps.Session.Settings()))
}

// handlePatchSettings handles PATCH /api/settings. The values are checked
// against the ranges of the settings controls before they reach the session.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsPatchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, toSettingsResponse(s.deps.Session.UpdateSettings(patch)))
}

func (req SettingsPatchRequest) toPatch() (core.SettingsPatch, error) {
	patch := core.SettingsPatch{Pitch: req.Pitch, Speed: req.Speed, Emotion: nil}

	if req.Pitch != nil && (*req.Pitch < core.MinPitch || *req.Pitch > core.MaxPitch) {
		return core.SettingsPatch{}, fmt.Errorf("pitch must be between %.1f and %.1f", core.MinPitch, core.MaxPitch)
	}

	if req.Speed != nil && (*req.Speed < core.MinSpeed || *req.Speed > core.MaxSpeed) {
		return core.SettingsPatch{}, fmt.Errorf("speed must be between %.1f and %.1f", core.MinSpeed, core.MaxSpeed)
	}

	if req.Emotion != nil {
		emotion := core.Emotion(*req.Emotion)
		if !emotion.Valid() {
			return core.SettingsPatch{}, fmt.Errorf("unsupported emotion '%s'", *req.Emotion)
		}

		patch.Emotion = &emotion
	}

	return patch, nil
}

// handleAccount handles GET /api/account
func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, AccountResponse{
		Email:       demoEmail,
		DisplayName: "",
		APIKey:      maskedKey,
		Notice:      demoNotice,
	})
}
