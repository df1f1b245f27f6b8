package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/book-expert/voice-studio/internal/waveform"
)

// handleWaveform handles GET /api/waveform?playing=&phase=&width=&height=&audio=
func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	playing, _ := strconv.ParseBool(query.Get("playing"))
	frame := waveform.Frame{
		Width:  parseFloat(query.Get("width")),
		Height: parseFloat(query.Get("height")),
		Phase:  parseFloat(query.Get("phase")),
	}

	var audioRef *string
	if audio := query.Get("audio"); audio != "" {
		audioRef = &audio
	}

	s.writeJSON(w, http.StatusOK, waveform.Render(playing, audioRef, frame))
}

// parseFloat returns 0 for missing, malformed or non-finite values.
func parseFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}

	return parsed
}
