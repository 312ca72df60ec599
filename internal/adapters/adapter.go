// Package adapters implements the uniform synthesis contract over nine
// upstream TTS backends, each speaking a different wire protocol.
package adapters

import (
	"context"

	"github.com/book-expert/unified-tts/internal/core"
)

// Adapter is the contract the pipeline and router act on: every backend
// kind, regardless of wire protocol, is reduced to this shape.
type Adapter interface {
	// Kind returns the backend's unique identifier (e.g. "openaudio").
	Kind() string
	// SupportsVoice reports whether this backend can serve voice. Clone
	// adapters accept any voice with reference material; preset-voice
	// adapters only accept names in their catalog.
	SupportsVoice(voice string) bool
	// Synthesize renders one chunk of text, honoring req.FormatHint where
	// the backend's native API allows it. The returned AdapterOutput
	// carries the raw bytes exactly as the backend produced them and the
	// container format they are actually encoded in, which may differ
	// from the hint. err's core.Kind drives the router's failover
	// decision.
	Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error)
	// HealthCheck performs a lightweight liveness probe.
	HealthCheck(ctx context.Context) error
}

// SynthesisInput is everything one adapter call needs to render a chunk.
type SynthesisInput struct {
	Text                string
	Voice               string
	ReferencePath       string
	ReferenceTranscript string
	IsClone             bool
	Speed               float64
	// FormatHint is the container format ("wav", "mp3", "flac", "opus")
	// the pipeline would prefer the backend emit directly. It is
	// advisory: the pipeline passes "wav" whenever chunks still need
	// stitching, and the request's final format when there is exactly
	// one chunk. An adapter whose upstream API has no such knob ignores
	// it and reports its native format in AdapterOutput.Format.
	FormatHint string
}

// AdapterOutput is one backend call's raw result: the bytes exactly as
// the backend returned them, and the container format they are encoded
// in. The pipeline decodes them to PCM only when stitching or transcoding
// is actually required.
type AdapterOutput struct {
	Data   []byte
	Format string
}
