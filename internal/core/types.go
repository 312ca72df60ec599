// Package core defines the domain types shared across the synthesis
// pipeline: voices, backend profiles, requests, chunks, and audio
// buffers. It holds no behavior beyond small invariant checks.
package core

import "fmt"

// Voice is a single synthesizable identity: either a user-registered
// voice clone (reference audio + transcript) or a backend-reported
// preset/voice id.
type Voice struct {
	Name            string
	Category        string
	Backend         string
	ReferencePath   string
	ReferenceTranscript string
	IsClone         bool
}

// BackendProfile is the immutable capability record for one backend kind.
// Invariant: OptimalWords <= MaxWords and CrossfadeMS*2 is small relative
// to the shortest chunk's audio duration (checked informally at the
// profile table, not per-request).
type BackendProfile struct {
	Kind             string
	MaxWords         int
	MaxChars         int
	OptimalWords     int
	NeedsChunking    bool
	CrossfadeMS      int
	NativeSampleRate int
	MaxConcurrency   int
	CallTimeoutSec   int
}

// Validate checks the static invariants a profile must satisfy.
func (p BackendProfile) Validate() error {
	if p.OptimalWords > p.MaxWords {
		return fmt.Errorf("profile %q: optimal_words (%d) exceeds max_words (%d)", p.Kind, p.OptimalWords, p.MaxWords)
	}

	if p.MaxWords <= 0 || p.MaxChars <= 0 {
		return fmt.Errorf("profile %q: max_words and max_chars must be positive", p.Kind)
	}

	if p.NativeSampleRate <= 0 {
		return fmt.Errorf("profile %q: native_sample_rate must be positive", p.Kind)
	}

	return nil
}

// SynthesisRequest is the internal, resolved request the pipeline acts on.
type SynthesisRequest struct {
	Text                string
	Voice               string
	ExplicitBackend     string
	Format              string
	Speed               float64
	ReferencePath       string
	ReferenceTranscript string
}

// Validate enforces the SynthesisRequest invariant: non-empty text.
func (r SynthesisRequest) Validate() error {
	if r.Text == "" {
		return NewError(KindInvalidRequest, "text must not be empty", nil)
	}

	if r.Voice == "" {
		return NewError(KindInvalidRequest, "voice must not be empty", nil)
	}

	return nil
}

// Chunk is one segment of text produced by the chunker.
type Chunk struct {
	Index      int
	Text       string
	IsTerminal bool
}

// AudioBuffer is decoded PCM audio, owned by the request that produced it.
type AudioBuffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration returns the playback duration of the buffer.
func (b AudioBuffer) Duration() float64 {
	if b.SampleRate == 0 || b.Channels == 0 {
		return 0
	}

	return float64(len(b.Samples)/b.Channels) / float64(b.SampleRate)
}

// SynthesisResult is the final output of one synthesis request.
type SynthesisResult struct {
	Audio          AudioBuffer
	Encoded        []byte
	ContentType    string
	BackendsUsed   []string
	ShortCircuited bool
}
