package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/book-expert/unified-tts/internal/core"
)

// statusFor maps a core.Kind to the HTTP status it should produce.
// KindCancelled has no mapping here: a cancelled request releases
// resources and writes no response at all.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindInvalidRequest:
		return http.StatusBadRequest
	case core.KindVoiceUnknown:
		return http.StatusNotFound
	case core.KindChunkTooLarge:
		return http.StatusRequestEntityTooLarge
	case core.KindBackendTransient:
		return http.StatusBadGateway
	case core.KindBackendDefinitive:
		return http.StatusBadGateway
	case core.KindStitchFailure, core.KindEncodeFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError renders err as a short JSON envelope. A cancelled request
// is dropped silently: no client is listening.
func writeError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)
	if kind == core.KindCancelled {
		return
	}

	writeJSON(w, statusFor(kind), errorBody{
		Error: errorDetail{Kind: string(kind), Message: err.Error()},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
