// Package httpapi exposes the gateway's OpenAI-compatible HTTP surface,
// built on chi's router and middleware stack.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/book-expert/logger"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/health"
	"github.com/book-expert/unified-tts/internal/voiceprefs"
	"github.com/book-expert/unified-tts/internal/voices"
)

// Synthesizer is the subset of pipeline.Pipeline the HTTP layer drives.
type Synthesizer interface {
	Synthesize(ctx context.Context, req core.SynthesisRequest) (core.SynthesisResult, error)
}

// DefaultBackend reports and updates the gateway's current default
// backend kind, used by /v1/backends/switch and /health.
type DefaultBackend interface {
	Get() string
	Set(kind string) error
}

// Server wires every handler over its dependencies and exposes the
// assembled chi.Mux via Handler.
type Server struct {
	pipeline Synthesizer
	voices   *voices.Registry
	prefs    *voiceprefs.Store
	health   *health.Tracker
	backend  DefaultBackend
	kinds    []string
	log      *logger.Logger
}

// New builds a Server. kinds lists every configured backend kind, used
// to answer GET /v1/backends even for adapters with no recorded health
// yet.
func New(
	pipeline Synthesizer,
	voiceRegistry *voices.Registry,
	prefs *voiceprefs.Store,
	tracker *health.Tracker,
	backend DefaultBackend,
	kinds []string,
	log *logger.Logger,
) *Server {
	return &Server{
		pipeline: pipeline,
		voices:   voiceRegistry,
		prefs:    prefs,
		health:   tracker,
		backend:  backend,
		kinds:    kinds,
		log:      log,
	}
}

// Handler assembles the chi router: request ID, real-IP, logging and
// recoverer middleware, then a flat route table. No auth layer.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logging)
	r.Use(chimiddleware.Recoverer)

	r.Post("/v1/audio/speech", s.handleSpeech)
	r.Get("/v1/voices", s.handleVoices)
	r.Get("/v1/models", s.handleModels)
	r.Get("/v1/backends", s.handleBackends)
	r.Post("/v1/backends/switch", s.handleSwitchBackend)
	r.Get("/v1/voice-prefs", s.handleListVoicePrefs)
	r.Post("/v1/voice-prefs/{voice}", s.handleSetVoicePref)
	r.Get("/health", s.handleHealth)

	return r
}
