// Package api exposes the Home, Voices, History and Settings screens as a
// JSON HTTP surface over a single session.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/generation"
	"github.com/book-expert/voice-studio/internal/session"
	"github.com/book-expert/voice-studio/internal/voices"
)

// Server limits.
const (
	maxUploadBytes   = 64 << 20
	maxJSONBodyBytes = 1 << 20
	readTimeout      = 15 * time.Second
	idleTimeout      = 60 * time.Second
)

// ObjectPrefix is the URL path under which stored objects are served.
const ObjectPrefix = "/objects/"

// Dependencies are the collaborators the handlers operate on.
type Dependencies struct {
	Session   *session.Session
	Generator *generation.Generator
	Uploader  *voices.Uploader
	Objects   core.ObjectStore
	Log       *logger.Logger
	// Location groups history by calendar day. Nil means time.Local.
	Location *time.Location
	Now      func() time.Time
}

// Server wires the handlers, the events hub and the metrics together.
type Server struct {
	deps    Dependencies
	metrics *Metrics
	events  *EventHub
	mux     *http.ServeMux
}

// New creates a Server and registers its events hub on the session.
func New(deps Dependencies) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.Location == nil {
		deps.Location = time.Local
	}

	metrics := NewMetrics(deps.Session)

	server := &Server{
		deps:    deps,
		metrics: metrics,
		events:  NewEventHub(deps.Session, metrics, deps.Log),
		mux:     http.NewServeMux(),
	}

	server.routes()

	return server
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.Handle("GET /api/events", s.events)

	s.mux.HandleFunc("GET /api/voices", s.handleListVoices)
	s.mux.HandleFunc("POST /api/voices", s.handleUploadVoice)
	s.mux.HandleFunc("DELETE /api/voices", s.handleRemoveCustomVoices)
	s.mux.HandleFunc("DELETE /api/voices/{id}", s.handleRemoveVoice)
	s.mux.HandleFunc("PUT /api/voices/selected", s.handleSelectVoice)

	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("PATCH /api/settings", s.handlePatchSettings)

	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/generate", s.handleGenerateStatus)

	s.mux.HandleFunc("GET /api/history", s.handleListHistory)
	s.mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
	s.mux.HandleFunc("DELETE /api/history/{id}", s.handleRemoveHistory)
	s.mux.HandleFunc("GET /api/history/{id}/download", s.handleDownload)

	s.mux.HandleFunc("GET /api/account", s.handleAccount)
	s.mux.HandleFunc("GET /api/waveform", s.handleWaveform)

	s.mux.HandleFunc("GET "+ObjectPrefix+"{key}", s.handleObject)
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return s.metrics.instrument(s.mux)
}

// Events returns the events hub.
func (s *Server) Events() *EventHub {
	return s.events
}

// Metrics returns the metrics collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// HTTPServer builds the listening server. Generation requests can take as
// long as the synthesizer, so there is no write timeout.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		s.deps.Log.Error("Failed to write JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(target)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")

		return false
	}

	return true
}
