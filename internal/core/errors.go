package core

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline error for HTTP disposition and routing
// decisions. See spec §7.
type Kind string

const (
	// KindInvalidRequest covers empty input, unknown format, malformed JSON.
	KindInvalidRequest Kind = "invalid_request"
	// KindVoiceUnknown means no adapter claims the requested voice.
	KindVoiceUnknown Kind = "voice_unknown"
	// KindChunkTooLarge means clause-level splitting still exceeds max_words.
	KindChunkTooLarge Kind = "chunk_too_large"
	// KindBackendTransient covers network errors, 5xx, timeouts.
	KindBackendTransient Kind = "backend_transient"
	// KindBackendDefinitive covers auth refusal or voice rejection by a backend.
	KindBackendDefinitive Kind = "backend_definitive"
	// KindStitchFailure covers sample-rate resolution or buffer decode failures.
	KindStitchFailure Kind = "stitch_failure"
	// KindEncodeFailure covers transcoder process failures.
	KindEncodeFailure Kind = "encode_failure"
	// KindCancelled covers client disconnect or deadline exceeded.
	KindCancelled Kind = "cancelled"
)

// Error attaches a Kind to an underlying error without discarding it.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}

	if e.Msg == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a Kind and a human-readable message.
func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindBackendTransient
// when err carries no Kind: an unclassified failure against an upstream
// is treated as retryable rather than fatal.
func KindOf(err error) Kind {
	var ce *Error

	if errors.As(err, &ce) {
		return ce.Kind
	}

	return KindBackendTransient
}

// IsTransient reports whether err should trigger router failover rather
// than immediately failing the whole request.
func IsTransient(err error) bool {
	return KindOf(err) == KindBackendTransient
}

// IsDefinitive reports whether err carries KindBackendDefinitive: the
// backend rejected the call outright and retrying it will not help.
func IsDefinitive(err error) bool {
	return KindOf(err) == KindBackendDefinitive
}
