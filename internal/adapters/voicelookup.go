package adapters

import "github.com/book-expert/unified-tts/internal/core"

// VoiceLookup is the subset of voices.Registry the clone-type adapters
// need: whether a named voice has reference material registered.
type VoiceLookup interface {
	Get(name string) (core.Voice, bool)
}
