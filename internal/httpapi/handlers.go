package httpapi

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/book-expert/unified-tts/internal/core"
)

const defaultResponseFormat = "mp3"

type speechRequest struct {
	Model               string  `json:"model"`
	Voice               string  `json:"voice"`
	Input               string  `json:"input"`
	ResponseFormat      string  `json:"response_format"`
	Speed               float64 `json:"speed"`
	Backend             string  `json:"backend"`
	ReferencePath       string  `json:"reference_path"`
	ReferenceTranscript string  `json:"reference_transcript"`
}

// handleSpeech implements POST /v1/audio/speech, the OpenAI-compatible
// synthesis endpoint. Request text is never logged at Info level, only
// its length and a SHA-256 hash.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var body speechRequest

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, core.NewError(core.KindInvalidRequest, "malformed JSON body", err))

		return
	}

	format := body.ResponseFormat
	if format == "" {
		format = defaultResponseFormat
	}

	speed := body.Speed
	if speed == 0 {
		speed = 1.0
	}

	req := core.SynthesisRequest{
		Text:                body.Input,
		Voice:               body.Voice,
		ExplicitBackend:     body.Backend,
		Format:              format,
		Speed:               speed,
		ReferencePath:       body.ReferencePath,
		ReferenceTranscript: body.ReferenceTranscript,
	}

	if voice, ok := s.voices.Get(body.Voice); ok {
		if req.ReferencePath == "" {
			req.ReferencePath = voice.ReferencePath
		}

		if req.ReferenceTranscript == "" {
			req.ReferenceTranscript = voice.ReferenceTranscript
		}
	}

	if s.log != nil {
		requestID := chimiddleware.GetReqID(r.Context())
		s.log.Info("speech request %s: voice=%q format=%q text_len=%d text_sha256=%x",
			requestID, body.Voice, format, len(body.Input), sha256.Sum256([]byte(body.Input)))
	}

	result, err := s.pipeline.Synthesize(r.Context(), req)
	if err != nil {
		writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Encoded)
}

type voiceResponse struct {
	Name     string `json:"name"`
	Backend  string `json:"backend,omitempty"`
	Category string `json:"category,omitempty"`
}

// handleVoices implements GET /v1/voices.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	details := s.voices.ListDetailed()
	out := make([]voiceResponse, 0, len(details))

	for _, v := range details {
		backend := v.Backend
		if pref, ok := s.voices.PreferredBackend(v.Name); ok {
			backend = pref
		}

		out = append(out, voiceResponse{Name: v.Name, Backend: backend, Category: v.Category})
	}

	writeJSON(w, http.StatusOK, map[string]any{"voices": out})
}

// handleModels implements GET /v1/models, an OpenAI-compat static list.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "tts-1", "object": "model", "owned_by": "unified-tts"},
		},
	})
}

// handleBackends implements GET /v1/backends: a snapshot of every
// configured backend's liveness state.
func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	snapshot := s.health.Snapshot()

	out := make(map[string]string, len(s.kinds))
	for _, kind := range s.kinds {
		if state, ok := snapshot[kind]; ok {
			out[kind] = string(state)
		} else {
			out[kind] = "unknown"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"backends": out,
		"default":  s.backend.Get(),
	})
}

type switchBackendRequest struct {
	Backend string `json:"backend"`
}

// handleSwitchBackend implements POST /v1/backends/switch.
func (s *Server) handleSwitchBackend(w http.ResponseWriter, r *http.Request) {
	var body switchBackendRequest

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Backend == "" {
		writeError(w, core.NewError(core.KindInvalidRequest, "backend field is required", nil))

		return
	}

	if err := s.backend.Set(body.Backend); err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"default": body.Backend})
}

// handleListVoicePrefs implements GET /v1/voice-prefs.
func (s *Server) handleListVoicePrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prefs.All())
}

type voicePrefRequest struct {
	Backend string `json:"backend"`
}

// handleSetVoicePref implements POST /v1/voice-prefs/{voice}.
func (s *Server) handleSetVoicePref(w http.ResponseWriter, r *http.Request) {
	voice := chi.URLParam(r, "voice")

	var body voicePrefRequest

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Backend == "" {
		writeError(w, core.NewError(core.KindInvalidRequest, "backend field is required", nil))

		return
	}

	if err := s.prefs.Set(voice, body.Backend); err != nil {
		writeError(w, fmt.Errorf("failed to persist voice preference: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"voice": voice, "backend": body.Backend})
}

// handleHealth implements GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": s.backend.Get(),
	})
}
